package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "chartdesk/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decodeAndValidate decodes the JSON body into dst and runs struct tag
// validation. It returns a renderable APIError on failure.
func decodeAndValidate(r *http.Request, dst interface{}) *apierrors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}

	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			details := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
			return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
				"Request validation failed", details)
		}
		return apierrors.InvalidRequestWithError(err)
	}

	return nil
}
