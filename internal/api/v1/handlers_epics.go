package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/epic"
)

// handleCreateEpic creates an epic. Only administrators get past the
// service gate.
func (a *API) handleCreateEpic(c *gin.Context) {
	var req epic.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid epic request: "+err.Error())
		return
	}

	created, err := a.Epics.Create(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Epic created", created)
}

func (a *API) handleGetEpic(c *gin.Context) {
	epicID, ok := pathID(c, "epicId")
	if !ok {
		return
	}

	e, err := a.Epics.Get(c.Request.Context(), epicID)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Epic retrieved", e)
}

func (a *API) handleUpdateEpic(c *gin.Context) {
	epicID, ok := pathID(c, "epicId")
	if !ok {
		return
	}

	var patch epic.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid update request: "+err.Error())
		return
	}

	updated, err := a.Epics.Update(c.Request.Context(), epicID, &patch, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Epic updated", updated)
}
