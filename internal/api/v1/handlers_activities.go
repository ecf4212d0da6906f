package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/activity"
	"github.com/goatkit/timeflow/internal/utils"
)

// handleCreateActivity creates an activity from a multipart form so files
// can ride along with the fields.
func (a *API) handleCreateActivity(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Request must be multipart/form-data")
		return
	}

	req := activityRequestFromForm(form.Value)
	files := form.File["files"]

	result, err := a.Activities.Create(c.Request.Context(), req, files, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Activity created", result)
}

func activityRequestFromForm(values map[string][]string) *activity.CreateRequest {
	first := func(key string) string {
		if v, ok := values[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := &activity.CreateRequest{
		Title:       first("activity_title"),
		ProductCode: first("product_code"),
	}
	if d := first("activity_description"); d != "" {
		req.Description = utils.StrPtr(d)
	}
	if b := first("is_billable"); b != "" {
		if billable, err := strconv.ParseBool(b); err == nil {
			req.IsBillable = &billable
		}
	}
	return req
}
