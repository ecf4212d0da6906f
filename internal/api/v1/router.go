// Package v1 exposes the HTTP surface of the timeflow API. Handlers bind
// requests, delegate to the services, and translate results through the
// shared response envelope.
package v1

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/auth"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/activity"
	"github.com/goatkit/timeflow/internal/services/attachment"
	"github.com/goatkit/timeflow/internal/services/comment"
	"github.com/goatkit/timeflow/internal/services/epic"
	"github.com/goatkit/timeflow/internal/services/leave"
	"github.com/goatkit/timeflow/internal/services/masterdata"
	"github.com/goatkit/timeflow/internal/services/task"
	"github.com/goatkit/timeflow/internal/services/template"
	"github.com/goatkit/timeflow/internal/services/timesheet"
)

// API bundles every service the HTTP layer fronts.
type API struct {
	Auth        *auth.Service
	JWT         *auth.JWTManager
	Tasks       *task.Service
	Epics       *epic.Service
	Templates   *template.Service
	Timesheets  *timesheet.Service
	Leaves      *leave.Service
	Comments    *comment.Service
	Attachments *attachment.Store
	Activities  *activity.Service
	MasterData  *masterdata.Service
	LoginLimit  *middleware.RateLimiter

	Logger *log.Logger
}

// RegisterRoutes wires every route onto the engine. Everything except login,
// refresh, health, and metrics sits behind JWT auth.
func (a *API) RegisterRoutes(engine *gin.Engine) {
	engine.Use(middleware.Metrics())

	engine.GET("/health", a.handleHealth)
	engine.GET("/metrics", middleware.MetricsHandler())

	root := engine.Group("/api/v1")

	authGroup := root.Group("/auth")
	if a.LoginLimit != nil {
		authGroup.POST("/login", a.LoginLimit.Limit(), a.handleLogin)
	} else {
		authGroup.POST("/login", a.handleLogin)
	}
	authGroup.POST("/refresh", a.handleRefresh)

	private := root.Group("")
	private.Use(middleware.RequireAuth(a.JWT))

	private.POST("/epics/:epicId/tasks", a.handleCreateTask)
	private.GET("/tasks/:taskId", a.handleGetTask)
	private.PATCH("/tasks/:taskId", a.handleUpdateTask)
	private.PUT("/tasks/:taskId", a.handleUpdateTask)
	private.POST("/tasks/:taskId/assign_to_self", a.handleAssignToSelf)
	private.DELETE("/epics/:epicId/tasks/:taskId", a.handleDeleteTask)
	private.GET("/tasks/:taskId/history", a.handleTaskHistory)

	private.POST("/epics", a.handleCreateEpic)
	private.GET("/epics/:epicId", a.handleGetEpic)
	private.PATCH("/epics/:epicId", a.handleUpdateEpic)
	private.PUT("/epics/:epicId", a.handleUpdateEpic)

	private.POST("/templates", a.handleSaveTemplate)
	private.POST("/templates/tasks/expand", a.handleExpandTask)
	private.POST("/templates/epics/expand", a.handleExpandEpic)

	private.POST("/timesheets", a.handleCreateTimesheet)
	private.GET("/timesheets/:entryId", a.handleGetTimesheet)
	private.POST("/timesheets/:entryId/submit", a.handleSubmitTimesheet)
	private.POST("/timesheets/:entryId/decision", a.handleDecideTimesheet)
	private.GET("/timesheets", a.handleListTimesheets)
	private.GET("/timesheets/export", a.handleExportTimesheets)

	private.POST("/leaves", a.handleApplyLeave)
	private.GET("/leaves/:leaveId", a.handleGetLeave)
	private.POST("/leaves/:leaveId/decision", a.handleDecideLeave)

	private.POST("/activities", a.handleCreateActivity)

	private.POST("/comments", a.handleAddComment)
	private.GET("/comments", a.handleListComments)

	private.POST("/attachments", a.handleUploadAttachments)
	private.GET("/attachments", a.handleListAttachments)

	private.GET("/masterdata", a.handleMasterData)

	admin := private.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/masterdata/refresh", a.handleRefreshMasterData)
}

// pathID parses a numeric path parameter, writing the error response itself
// when the value is not a positive integer.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
