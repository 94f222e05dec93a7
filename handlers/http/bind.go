package httpHandler

import (
	"encoding/json"
	"io"
	"net/http"

	"wattwise-server/apperr"
	"wattwise-server/middleware"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Wrap(err, apperr.PayloadTooLarge, "Request body too large.")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Wrap(err, apperr.Validation, "Invalid value for "+typeErr.Field+".")
	}

	return apperr.Wrap(err, apperr.Validation, "Invalid request body.")
}

// currentPrincipal returns the caller resolved by the gate.
func currentPrincipal(c *gin.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok {
		return middleware.Principal{}, errors.New("no principal on an authenticated route")
	}
	return p, nil
}
