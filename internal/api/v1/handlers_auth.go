package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/auth"
)

// handleLogin authenticates by user code or email and issues a token pair.
func (a *API) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "Invalid login request: "+err.Error())
		return
	}

	result, err := a.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Login successful", gin.H{
		"user_code":     result.User.UserCode,
		"user_name":     result.User.UserName,
		"access_token":  result.Tokens.AccessToken,
		"refresh_token": result.Tokens.RefreshToken,
		"token_type":    result.Tokens.TokenType,
		"expires_in":    result.Tokens.ExpiresIn,
	})
}

// handleRefresh trades a refresh token for a fresh pair.
func (a *API) handleRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		apierrors.SendMessage(c, apierrors.CodeInvalidRequest, "refresh_token is required")
		return
	}

	pair, err := a.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		apierrors.RespondError(c, err)
		return
	}

	apierrors.Respond(c, http.StatusOK, "Token refreshed", pair)
}
