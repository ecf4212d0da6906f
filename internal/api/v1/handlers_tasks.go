package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/task"
)

// handleCreateTask creates a task under the epic in the path.
func (a *API) handleCreateTask(c *gin.Context) {
	epicID, ok := pathID(c, "epicId")
	if !ok {
		return
	}

	var req task.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid task request: "+err.Error())
		return
	}
	req.EpicCode = epicID

	created, err := a.Tasks.Create(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Task created", created)
}

func (a *API) handleGetTask(c *gin.Context) {
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	t, err := a.Tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Task retrieved", t)
}

// handleUpdateTask applies a partial update. Placeholder values in the body
// are treated as absent fields.
func (a *API) handleUpdateTask(c *gin.Context) {
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	var patch task.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid update request: "+err.Error())
		return
	}

	updated, err := a.Tasks.Update(c.Request.Context(), taskID, &patch, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Task updated", updated)
}

// handleAssignToSelf assigns the task to the caller. Re-assigning a task the
// caller already holds is a no-op, not an error.
func (a *API) handleAssignToSelf(c *gin.Context) {
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	t, changed, err := a.Tasks.AssignToSelf(c.Request.Context(), taskID, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	message := "Task assigned"
	if !changed {
		message = "Task already assigned to you"
	}
	apierrors.Respond(c, http.StatusOK, message, t)
}

// handleDeleteTask removes a task from an epic. The epic reference decides
// whether a live task or a predefined template entry is deleted.
func (a *API) handleDeleteTask(c *gin.Context) {
	epicID, ok := pathID(c, "epicId")
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	result, err := a.Tasks.Delete(c.Request.Context(), epicID, taskID, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Task deleted", result)
}

func (a *API) handleTaskHistory(c *gin.Context) {
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}

	events, err := a.Tasks.History(c.Request.Context(), taskID)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Task history retrieved", events)
}
