package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func TestTimesheetWorkbook(t *testing.T) {
	d1 := time.Date(2024, 5, 13, 0, 0, 0, 0, utils.IST)
	d2 := time.Date(2024, 5, 14, 0, 0, 0, 0, utils.IST)
	task := int64(42)
	ticket := int64(9001)
	tt := "TT002"

	entries := []models.TimesheetEntry{
		{EntryDate: &d1, TaskCode: &task, TaskTypeCode: &tt, ActualHours: 6, TravelTime: 1, TotalHours: 7, ApprovalStatus: models.ApprovalApproved},
		{EntryDate: &d2, TicketCode: &ticket, ActualHours: 4, TotalHours: 4, ApprovalStatus: models.ApprovalSubmitted},
	}

	f, err := TimesheetWorkbook("EMP001", d1, d2, entries)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "EMP001")
	assert.Contains(t, title, "13-05-2024")

	header, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Entry Date", header)

	taskCell, err := f.GetCellValue(sheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "42", taskCell)

	ticketCell, err := f.GetCellValue(sheetName, "E5")
	require.NoError(t, err)
	assert.Equal(t, "9001", ticketCell)

	total, err := f.GetCellValue(sheetName, "J6")
	require.NoError(t, err)
	assert.Equal(t, "11", total)
}

func TestTimesheetWorkbookEmpty(t *testing.T) {
	from := time.Date(2024, 5, 13, 0, 0, 0, 0, utils.IST)
	f, err := TimesheetWorkbook("EMP001", from, from, nil)
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(sheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}
