package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/export"
	"github.com/goatkit/timeflow/internal/services/timesheet"
	"github.com/goatkit/timeflow/internal/utils"
)

// handleCreateTimesheet drafts a timesheet entry for the caller.
func (a *API) handleCreateTimesheet(c *gin.Context) {
	var req timesheet.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid timesheet request: "+err.Error())
		return
	}
	if req.UserCode == "" {
		req.UserCode = middleware.CurrentUser(c)
	}

	entry, err := a.Timesheets.CreateDraft(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Timesheet entry drafted", entry)
}

func (a *API) handleGetTimesheet(c *gin.Context) {
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	entry, err := a.Timesheets.Get(c.Request.Context(), entryID)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Timesheet entry retrieved", entry)
}

// handleSubmitTimesheet moves the caller's draft into review.
func (a *API) handleSubmitTimesheet(c *gin.Context) {
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	entry, err := a.Timesheets.Submit(c.Request.Context(), entryID, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Timesheet entry submitted", entry)
}

// handleDecideTimesheet approves or rejects a submitted entry. Who may
// decide is resolved from the approval hierarchy, not from a role flag.
func (a *API) handleDecideTimesheet(c *gin.Context) {
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	var d timesheet.Decision
	if err := c.ShouldBindJSON(&d); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid decision request: "+err.Error())
		return
	}

	entry, err := a.Timesheets.Decide(c.Request.Context(), entryID, d, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	message := "Timesheet entry rejected"
	if d.Approve {
		message = "Timesheet entry approved"
	}
	apierrors.Respond(c, http.StatusOK, message, entry)
}

// listRange reads the user_code, from_date, and to_date query parameters
// shared by the list and export routes. user_code defaults to the caller.
func (a *API) listRange(c *gin.Context) (userCode string, from, to time.Time, ok bool) {
	userCode = c.Query("user_code")
	if userCode == "" {
		userCode = middleware.CurrentUser(c)
	}

	from, err := utils.ParseDate(c.Query("from_date"))
	if err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "from_date is required in DD-MM-YYYY format")
		return "", time.Time{}, time.Time{}, false
	}
	to, err = utils.ParseDate(c.Query("to_date"))
	if err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "to_date is required in DD-MM-YYYY format")
		return "", time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "to_date must not precede from_date")
		return "", time.Time{}, time.Time{}, false
	}
	return userCode, from, to, true
}

func (a *API) handleListTimesheets(c *gin.Context) {
	userCode, from, to, ok := a.listRange(c)
	if !ok {
		return
	}

	entries, err := a.Timesheets.ListForUserRange(c.Request.Context(), userCode, from, to)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Timesheet entries retrieved", entries)
}

// handleExportTimesheets streams the range as an XLSX workbook.
func (a *API) handleExportTimesheets(c *gin.Context) {
	userCode, from, to, ok := a.listRange(c)
	if !ok {
		return
	}

	entries, err := a.Timesheets.ListForUserRange(c.Request.Context(), userCode, from, to)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	wb, err := export.TimesheetWorkbook(userCode, from, to, entries)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}
	defer wb.Close()

	filename := fmt.Sprintf("timesheet_%s_%s_%s.xlsx",
		userCode, from.Format("02-01-2006"), to.Format("02-01-2006"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := wb.Write(c.Writer); err != nil && a.Logger != nil {
		a.Logger.Printf("[api] timesheet export write failed: %v", err)
	}
}
