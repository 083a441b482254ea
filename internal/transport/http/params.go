package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apierrors "taxipulse/internal/errors"
	api "taxipulse/pkg/contracts/api/v1"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// intParam parses a chi URL parameter
func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apierrors.InvalidParameter(name, err)
	}
	return v, nil
}

// intQuery parses a query parameter, returning def when it is absent
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameter(name, err)
	}
	return v, nil
}

// validateRequest runs the struct tags of req and reports every failed field
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.NewValidationErrors([]apierrors.ValidationError{{Message: err.Error()}})
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: describe(fe),
		})
	}
	return apierrors.NewValidationErrors(fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func parsePeriod(r *http.Request) (api.PeriodRequest, error) {
	year, err := intParam(r, "year")
	if err != nil {
		return api.PeriodRequest{}, err
	}
	month, err := intParam(r, "month")
	if err != nil {
		return api.PeriodRequest{}, err
	}
	req := api.PeriodRequest{Year: year, Month: month}
	return req, validateRequest(req)
}
