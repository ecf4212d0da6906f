package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/middleware"
	"github.com/goatkit/timeflow/internal/services/comment"
)

// handleAddComment stores a markdown comment against a parent entity.
func (a *API) handleAddComment(c *gin.Context) {
	var req comment.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid comment request: "+err.Error())
		return
	}

	created, err := a.Comments.Add(c.Request.Context(), &req, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Comment added", created)
}

// parentQuery reads the parent_type/parent_code pair shared by the comment
// and attachment listing routes.
func parentQuery(c *gin.Context) (string, int64, bool) {
	parentType := c.Query("parent_type")
	parentCode, err := strconv.ParseInt(c.Query("parent_code"), 10, 64)
	if parentType == "" || err != nil || parentCode <= 0 {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "parent_type and a positive parent_code are required")
		return "", 0, false
	}
	return parentType, parentCode, true
}

func (a *API) handleListComments(c *gin.Context) {
	parentType, parentCode, ok := parentQuery(c)
	if !ok {
		return
	}

	comments, err := a.Comments.List(c.Request.Context(), parentType, parentCode)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Comments retrieved", comments)
}

// handleUploadAttachments saves one or more files against a parent entity.
// The batch is atomic: either every file lands or none do.
func (a *API) handleUploadAttachments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Request must be multipart/form-data")
		return
	}

	first := func(key string) string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	parentType := first("parent_type")
	parentCode, err := strconv.ParseInt(first("parent_code"), 10, 64)
	if parentType == "" || err != nil || parentCode <= 0 {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "parent_type and a positive parent_code are required")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "At least one file is required")
		return
	}

	saved, err := a.Attachments.SaveAll(c.Request.Context(), parentType, parentCode, files, middleware.CurrentUser(c))
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusCreated, "Attachments uploaded", saved)
}

func (a *API) handleListAttachments(c *gin.Context) {
	parentType, parentCode, ok := parentQuery(c)
	if !ok {
		return
	}

	attachments, err := a.Attachments.List(c.Request.Context(), parentType, parentCode)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Attachments retrieved", attachments)
}
