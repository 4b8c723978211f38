package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-catalog/catalog/internal/errs"
	"github.com/Astemirdum/book-catalog/pkg/validate"
)

type dataResponse struct {
	Data interface{} `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors validate.ValidationErrors `json:"errors"`
}

// serviceError maps service outcomes onto HTTP errors.
func (h *Handler) serviceError(err error) error {
	var verrs validate.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return verrs
	case errors.Is(err, errs.ErrDuplicateIsbn):
		return echo.NewHTTPError(http.StatusBadRequest, errs.ErrDuplicateIsbn.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, errs.ErrNotFound.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, errs.ErrInternal.Error()).SetInternal(err)
	}
}

// errorHandler renders every failure as a JSON body:
// {"errors":[...]} for validation, {"error":"..."} otherwise.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		verrs validate.ValidationErrors
		he    *echo.HTTPError
		code  = http.StatusInternalServerError
		body  interface{}
	)
	switch {
	case errors.As(err, &verrs):
		code = http.StatusBadRequest
		body = validationResponse{Errors: verrs}
	case errors.As(err, &he):
		code = he.Code
		body = errorResponse{Error: fmt.Sprint(he.Message)}
		if code >= http.StatusInternalServerError {
			h.log.Error("request failed", zap.Int("code", code), zap.Error(he.Unwrap()))
		}
	default:
		h.log.Error("unhandled error", zap.Error(err))
		body = errorResponse{Error: errs.ErrInternal.Error()}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}
