package apierrors

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body returned by every route, success or
// failure. Field names are fixed by the API contract.
type Envelope struct {
	StatusFlag        bool   `json:"Status_Flag"`
	StatusDescription string `json:"Status_Description"`
	StatusCode        int    `json:"Status_Code"`
	StatusMessage     string `json:"Status_Message"`
	ResponseData      any    `json:"Response_Data"`
}

// Respond sends a success envelope with the given HTTP status and payload.
func Respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		StatusFlag:        true,
		StatusDescription: "SUCCESS",
		StatusCode:        status,
		StatusMessage:     message,
		ResponseData:      data,
	})
}

// RespondError maps err onto the envelope using the registry's HTTP status.
// Unknown errors are wrapped as Internal so no raw details leak to clients.
func RespondError(c *gin.Context, err error) {
	e := AsError(err)
	c.JSON(e.HTTPStatus(), Envelope{
		StatusFlag:        false,
		StatusDescription: "FAILURE",
		StatusCode:        e.HTTPStatus(),
		StatusMessage:     e.Detail,
		ResponseData:      nil,
	})
}

// Send sends an error response using a registered error code
func Send(c *gin.Context, code string) {
	RespondError(c, &Error{Code: code, Detail: Registry.Message(code)})
}

// SendMessage sends an error response with a custom message
func SendMessage(c *gin.Context, code, message string) {
	RespondError(c, &Error{Code: code, Detail: message})
}
