package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/neonet-app/go-auth"
)

const (
	TextCodeHandlerNotFound = "auth_handler_not_found"
	TextCodeMissingToken    = "auth_missing_token"
	TextCodeBadPayload      = "auth_bad_payload"
)

var (
	// ErrHandlerNotFound the route names an unknown handler
	ErrHandlerNotFound = errors.New("auth handler not found", errors.CategoryNotFound).
				WithTextCode(TextCodeHandlerNotFound).
				WithCode(errors.CodeNotFound)

	// ErrMissingToken no bearer token on the request
	ErrMissingToken = errors.New("missing or malformed JWT", errors.CategoryAuth).
			WithTextCode(TextCodeMissingToken).
			WithCode(errors.CodeUnauthorized)

	// ErrBadPayload the body could not be decoded
	ErrBadPayload = errors.New("unable to parse request body", errors.CategoryBadInput).
			WithTextCode(TextCodeBadPayload).
			WithCode(errors.CodeBadRequest)
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps handler errors to HTTP status codes
func StatusFor(err error) int {
	var rich *errors.Error
	if errors.As(err, &rich) && rich != nil {
		switch rich.TextCode {
		case TextCodeHandlerNotFound:
			return fiber.StatusNotFound
		case TextCodeMissingToken:
			return fiber.StatusUnauthorized
		case TextCodeBadPayload:
			return fiber.StatusBadRequest
		}
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) && ferr != nil {
		return ferr.Code
	}

	switch auth.KindOf(err) {
	case auth.KindInvalidData:
		return fiber.StatusBadRequest
	case auth.KindUnauthorized:
		return fiber.StatusUnauthorized
	case auth.KindDoesNotSupport:
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

func responseFor(err error) ErrorResponse {
	var rich *errors.Error
	if errors.As(err, &rich) && rich != nil {
		return ErrorResponse{Error: rich.Message, Code: rich.TextCode}
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) && ferr != nil {
		return ErrorResponse{Error: ferr.Message, Code: "http_error"}
	}

	return ErrorResponse{Error: "An unexpected server error occurred", Code: auth.TextCodeUnknown}
}
