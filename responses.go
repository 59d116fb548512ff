package tube

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// APIResponse is the success envelope every JSON endpoint returns.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIError is the failure envelope. Success is always false and Errors
// carries field level detail when validation produced any.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// NewAPIResponse builds the success envelope.
func NewAPIResponse(statusCode int, data any, message string) APIResponse {
	return APIResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	}
}

// RespondJSON writes the success envelope with the matching HTTP status.
func RespondJSON(ctx router.Context, statusCode int, data any, message string) error {
	return ctx.JSON(statusCode, NewAPIResponse(statusCode, data, message))
}

// RespondError maps an error to the failure envelope. Rich errors carry
// their own HTTP code and category; anything else is reported as a 500
// without leaking internals.
func RespondError(ctx router.Context, err error) error {
	statusCode := router.StatusInternalServerError
	message := "internal server error"
	details := []string{}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		message = richErr.Message

		if richErr.Code != 0 {
			statusCode = int(richErr.Code)
		} else {
			statusCode = categoryStatus(richErr.Category)
		}

		if richErr.Category == errors.CategoryValidation {
			for field, detail := range richErr.Metadata {
				details = append(details, fmt.Sprintf("%s: %v", field, detail))
			}
			sort.Strings(details)
		}
	}

	return ctx.JSON(statusCode, APIError{
		StatusCode: statusCode,
		Message:    message,
		Success:    false,
		Errors:     details,
	})
}

func categoryStatus(category errors.Category) int {
	switch category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return router.StatusUnauthorized
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}
