package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/leave"
)

// handleApplyLeave files a leave application for the caller.
func (a *API) handleApplyLeave(c *gin.Context) {
	var req leave.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid leave request: "+err.Error())
		return
	}
	if req.UserCode == "" {
		req.UserCode = middleware.CurrentUser(c)
	}

	app, err := a.Leaves.Apply(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Leave application submitted", app)
}

func (a *API) handleGetLeave(c *gin.Context) {
	leaveID, ok := pathID(c, "leaveId")
	if !ok {
		return
	}

	app, err := a.Leaves.Get(c.Request.Context(), leaveID)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Leave application retrieved", app)
}

// handleDecideLeave approves or rejects a submitted application. The service
// restricts deciders to administrators other than the applicant.
func (a *API) handleDecideLeave(c *gin.Context) {
	leaveID, ok := pathID(c, "leaveId")
	if !ok {
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid decision request: "+err.Error())
		return
	}

	app, err := a.Leaves.Decide(c.Request.Context(), leaveID, req.Approve, req.Reason, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	message := "Leave application rejected"
	if req.Approve {
		message = "Leave application approved"
	}
	apierrors.Respond(c, http.StatusOK, message, app)
}
