package utility

import (
	"errors"
	"net/http"
	"strings"

	"Fitdiary/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RespondError writes err as {"error": msg} with the status its kind maps
// to. Server-side failures are logged with the request logger.
func RespondError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	logger := GetLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("Request rejected")
	}
	return c.JSON(status, map[string]string{"error": apperr.PublicMessage(err)})
}

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate returns an apperr validation error naming the failing fields.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid request")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return apperr.Validation("Invalid request: " + strings.Join(fields, ", "))
}
