package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/promohub/internal/validation"
	"github.com/gin-gonic/gin"
)

const redactedError = "Something went wrong"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Responder writes envelopes. With Redact set, unexpected error text is
// replaced by a generic message.
type Responder struct {
	Redact bool
}

func (r Responder) OK(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func (r Responder) Created(ctx *gin.Context, message string, data any) {
	ctx.JSON(http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

func (r Responder) NotFound(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusNotFound, Envelope{Success: false, Message: message})
}

func (r Responder) BadRequest(ctx *gin.Context, message, errText string, details any) {
	ctx.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Error:   errText,
		Details: details,
	})
}

func (r Responder) Internal(ctx *gin.Context, message string, err error) {
	_ = ctx.Error(err)

	errText := redactedError
	if !r.Redact && err != nil {
		errText = err.Error()
	}

	ctx.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: message,
		Error:   errText,
	})
}

// Fail classifies err: notFound maps to 404 with notFoundMsg, validation
// errors to 400 and anything else to 500, both with failMsg.
func (r Responder) Fail(ctx *gin.Context, err error, notFound error, notFoundMsg, failMsg string) {
	if notFound != nil && errors.Is(err, notFound) {
		r.NotFound(ctx, notFoundMsg)
		return
	}

	if verr, ok := validation.As(err); ok {
		r.BadRequest(ctx, failMsg, verr.Error(), verr.Violations)
		return
	}

	r.Internal(ctx, failMsg, err)
}
