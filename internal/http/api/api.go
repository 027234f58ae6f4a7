package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/errs"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/model"
)

// APIError is the error half of every handler result. Details, when set, is
// returned alongside the message.
type APIError struct {
	Code    int
	Message string
	Details any
}

func (e *APIError) Error() string { return e.Message }

// Status lets a handler pick a success code other than 200.
type Status struct {
	Code int
	Body any
}

// StatusClientClosed is logged when the caller went away before an answer was ready.
const StatusClientClosed = 499

// NoContent is returned by handlers that answer with an empty 204.
var NoContent = Status{Code: http.StatusNoContent}

func Created(body any) Status { return Status{Code: http.StatusCreated, Body: body} }

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func BadRequest(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg}
}

func Cancelled() *APIError {
	return &APIError{Code: StatusClientClosed, Message: "request cancelled"}
}

func Internal(msg string) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: msg}
}

// FromStoreError maps store errors onto HTTP codes, using msg for anything unexpected.
func FromStoreError(err error, msg string) *APIError {
	switch {
	case errs.IsCancelled(err):
		return Cancelled()
	case errs.IsNotFound(err):
		return &APIError{Code: http.StatusNotFound, Message: "not found"}
	case errors.Is(err, errs.ErrForbidden):
		return &APIError{Code: http.StatusForbidden, Message: "forbidden"}
	case errors.Is(err, errs.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	default:
		return Internal(msg)
	}
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		result, apiErr := h(ctx, user)
		respond(ctx, result, apiErr)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		respond(ctx, result, apiErr)
	}
}

func respond(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		body := gin.H{"error": apiErr.Message}
		if apiErr.Details != nil {
			body["details"] = apiErr.Details
		}
		ctx.JSON(apiErr.Code, body)
		return
	}
	// the handler already wrote the response (304, websocket, HTML)
	if ctx.Writer.Written() {
		return
	}
	if st, ok := result.(Status); ok {
		if st.Body == nil {
			ctx.Status(st.Code)
			return
		}
		ctx.JSON(st.Code, st.Body)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
