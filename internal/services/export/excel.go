// Package export renders timesheet data to XLSX workbooks for download.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goatkit/timeflow/internal/models"
)

const sheetName = "Timesheet"

var headers = []string{
	"Entry Date", "Task", "Epic", "Activity", "Ticket", "Task Type",
	"Actual Hours", "Travel Time", "Waiting Time", "Total Hours", "Status",
}

// TimesheetWorkbook renders one user's entries for a date range into a
// workbook with a header row, one row per entry, and a totals row.
func TimesheetWorkbook(userCode string, from, to time.Time, entries []models.TimesheetEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1",
		fmt.Sprintf("Timesheet for %s (%s to %s)", userCode,
			from.Format("02-01-2006"), to.Format("02-01-2006"))); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, titleStyle); err != nil {
			return nil, err
		}
	}

	var totalActual, totalTravel, totalWaiting, totalAll float64
	for i := range entries {
		e := &entries[i]
		row := i + 4
		values := []any{
			formatDate(e.EntryDate),
			formatRef(e.TaskCode),
			formatRef(e.EpicCode),
			formatRef(e.ActivityCode),
			formatRef(e.TicketCode),
			deref(e.TaskTypeCode),
			e.ActualHours,
			e.TravelTime,
			e.WaitingTime,
			e.TotalHours,
			e.ApprovalStatus,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
		totalActual += e.ActualHours
		totalTravel += e.TravelTime
		totalWaiting += e.WaitingTime
		totalAll += e.TotalHours
	}

	totalsRow := len(entries) + 4
	totals := map[int]any{
		1:  "Total",
		7:  totalActual,
		8:  totalTravel,
		9:  totalWaiting,
		10: totalAll,
	}
	for col, v := range totals {
		cell, err := excelize.CoordinatesToCellName(col, totalsRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, titleStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "K", 14); err != nil {
		return nil, err
	}
	return f, nil
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("02-01-2006")
}

func formatRef(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
