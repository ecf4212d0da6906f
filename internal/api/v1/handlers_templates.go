package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/template"
)

// handleSaveTemplate upserts an epic or task template, including any linked
// task templates carried in the body.
func (a *API) handleSaveTemplate(c *gin.Context) {
	var req template.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid template request: "+err.Error())
		return
	}

	result, err := a.Templates.Save(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Template updated"
	if result.Created {
		status = http.StatusCreated
		message = "Template created"
	}
	apierrors.Respond(c, status, message, result)
}

// handleExpandTask instantiates one task template into a live epic.
// Expanding the same pair twice refreshes the earlier task.
func (a *API) handleExpandTask(c *gin.Context) {
	var req template.ExpandTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid expansion request: "+err.Error())
		return
	}

	t, created, err := a.Templates.ExpandTask(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Task refreshed from template"
	if created {
		status = http.StatusCreated
		message = "Task created from template"
	}
	apierrors.Respond(c, status, message, t)
}

// handleExpandEpic instantiates an epic template and all its linked task
// templates in one shot.
func (a *API) handleExpandEpic(c *gin.Context) {
	var req template.ExpandEpicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid expansion request: "+err.Error())
		return
	}

	result, err := a.Templates.ExpandEpic(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	status, message := http.StatusOK, "Epic updated from template"
	if result.Created {
		status = http.StatusCreated
		message = "Epic created from template"
	}
	apierrors.Respond(c, status, message, result)
}
