// Package httputil contains helpers for the HTTP layer.
package httputil

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidBody      = errors.New("the body of your request contains invalid or un-parseable data. Please check and try again")
	ErrRequestBodyEmpty = errors.New("the request body must not be empty")
	ErrInvalidUUID      = errors.New("the specified resource ID is not a valid UUID")
)

// HTTPError is used for error responses that contain a body.
type HTTPError struct {
	Error string `json:"error" example:"the request body must not be empty"`
}

// NewError writes an error response with the given status.
func NewError(c *gin.Context, status int, err error) {
	c.JSON(status, HTTPError{Error: err.Error()})
}

// InternalError logs the error with the request ID and writes an opaque 500.
func InternalError(c *gin.Context, err error) {
	log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
	NewError(c, http.StatusInternalServerError,
		errors.New("an error occurred on the server during your request, please contact your server administrator"))
}

// BindData binds the JSON body from the request to the struct passed in.
// An error has already been written to the response when one is returned.
func BindData(c *gin.Context, data any) error {
	err := c.ShouldBindJSON(data)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		NewError(c, http.StatusBadRequest, ErrRequestBodyEmpty)
		return ErrRequestBodyEmpty
	}

	log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
	NewError(c, http.StatusBadRequest, ErrInvalidBody)
	return ErrInvalidBody
}
