package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
)

// handleMasterData serves the cached reference-data snapshot.
func (a *API) handleMasterData(c *gin.Context) {
	snapshot, err := a.MasterData.Get(c.Request.Context())
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Master data retrieved", snapshot)
}

// handleRefreshMasterData rebuilds the cache on demand. Admin only.
func (a *API) handleRefreshMasterData(c *gin.Context) {
	snapshot, err := a.MasterData.Refresh(c.Request.Context())
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Master data refreshed", snapshot)
}

func (a *API) handleHealth(c *gin.Context) {
	apierrors.Respond(c, http.StatusOK, "Service healthy", gin.H{
		"service":   "timeflow-api",
		"timestamp": time.Now().UTC(),
	})
}
