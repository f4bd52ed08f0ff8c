// Package response defines the error envelope returned by the HTTP API and
// helpers for building it.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Message: "Invalid request body.",
}

var InvalidURLResponse = Response{
	Status:  StatusError,
	Message: "Invalid URL provided.",
}

var URLTooLongResponse = Response{
	Status:  StatusError,
	Message: "URL is too long.",
}

var InvalidShortCodeResponse = Response{
	Status:  StatusError,
	Message: "Invalid short code format.",
}

var DuplicateShortCodeResponse = Response{
	Status:  StatusError,
	Message: "Short code already exists.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Message: "The requested resource was not found.",
}

var URLExpiredResponse = Response{
	Status:  StatusError,
	Message: "The URL has expired.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Message: "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse converts validator errors into a response whose
// details name the offending fields.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Message: "Validation failed.",
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			resp.Details = append(resp.Details, map[string]string{
				"field": fieldErr.Field(),
				"rule":  fieldErr.Tag(),
			})
		}
	}

	return resp
}
