package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope status values.
const (
	StatusSuccess = "SUCCESS"
	StatusPending = "PENDING"
	StatusFailed  = "FAILED"
)

type APIResponse[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// Success writes a SUCCESS envelope.
func Success[T any](ctx *gin.Context, code int, data T, message string) {
	write(ctx, code, http.StatusOK, APIResponse[T]{Status: StatusSuccess, Message: message, Data: data})
}

// Pending writes a PENDING envelope, used while an action awaits the user (e.g. email verification).
func Pending(ctx *gin.Context, code int, message string) {
	write(ctx, code, http.StatusAccepted, APIResponse[any]{Status: StatusPending, Message: message})
}

// Error writes a FAILED envelope.
func Error(ctx *gin.Context, code int, message string) {
	write(ctx, code, http.StatusBadRequest, APIResponse[any]{Status: StatusFailed, Message: message})
}

func write[T any](ctx *gin.Context, code, def int, body APIResponse[T]) {
	if code == 0 {
		code = def
	}
	ctx.JSON(code, body)
}
