package auth

import (
	"github.com/goliatone/go-errors"
)

// Text codes attached to every error returned by an AuthHandler
const (
	TextCodeInvalidData    = "auth_invalid_data"
	TextCodeUnauthorized   = "auth_unauthorized"
	TextCodeUnknown        = "auth_unknown"
	TextCodeDoesNotSupport = "auth_does_not_support"
	TextCodeConfigInvalid  = "auth_config_invalid"
	TextCodeInvalidToken   = "auth_invalid_token"
	TextCodeWrongTokenType = "auth_wrong_token_type"
)

// ErrorKind is the closed set of failure kinds surfaced to callers
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindInvalidData    ErrorKind = "InvalidData"
	KindUnauthorized   ErrorKind = "Unauthorized"
	KindUnknown        ErrorKind = "Unknown"
	KindDoesNotSupport ErrorKind = "DoesNotSupport"
	KindConfigInvalid  ErrorKind = "ConfigValidate"
)

// Operation names the handler operation that produced an error
type Operation string

const (
	OpInitConfig Operation = "init_config"
	OpLogin      Operation = "login"
	OpCallback   Operation = "callback"
	OpRegister   Operation = "register"
	OpLogout     Operation = "logout"
	OpValidate   Operation = "validate"
	OpRefresh    Operation = "refresh"
)

var (
	// ErrInvalidData input was rejected
	ErrInvalidData = errors.New("invalid data", errors.CategoryBadInput).
			WithTextCode(TextCodeInvalidData).
			WithCode(errors.CodeBadRequest)

	// ErrUnauthorized credentials or strategy were refused
	ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
			WithTextCode(TextCodeUnauthorized).
			WithCode(errors.CodeUnauthorized)

	// ErrUnknown infrastructure failure
	ErrUnknown = errors.New("unknown error", errors.CategoryInternal).
			WithTextCode(TextCodeUnknown).
			WithCode(errors.CodeInternal)

	// ErrDoesNotSupport operation not implemented by the handler variant
	ErrDoesNotSupport = errors.New("operation not supported", errors.CategoryOperation).
				WithTextCode(TextCodeDoesNotSupport).
				WithCode(errors.CodeBadRequest)

	// ErrConfigInvalid bad handler configuration
	ErrConfigInvalid = errors.New("invalid configuration", errors.CategoryValidation).
				WithTextCode(TextCodeConfigInvalid).
				WithCode(errors.CodeBadRequest)

	// ErrInvalidToken token failed signature, format or expiry checks
	ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
			WithTextCode(TextCodeInvalidToken).
			WithCode(errors.CodeUnauthorized)

	// ErrWrongTokenType token mode does not match the requested mode
	ErrWrongTokenType = errors.New("wrong token type", errors.CategoryAuth).
				WithTextCode(TextCodeWrongTokenType).
				WithCode(errors.CodeUnauthorized)

	// ErrNoEmptyString empty passwords can not be hashed
	ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput).
				WithTextCode(TextCodeInvalidData).
				WithCode(errors.CodeBadRequest)

	// ErrMismatchedHashAndPassword password does not match hash
	ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
					WithTextCode(TextCodeUnauthorized).
					WithCode(errors.CodeUnauthorized)
)

var kindByTextCode = map[string]ErrorKind{
	TextCodeInvalidData:    KindInvalidData,
	TextCodeUnauthorized:   KindUnauthorized,
	TextCodeUnknown:        KindUnknown,
	TextCodeDoesNotSupport: KindDoesNotSupport,
	TextCodeConfigInvalid:  KindConfigInvalid,
}

func newHandlerError(base *errors.Error, op Operation, msg string, src error) *errors.Error {
	clone := base.Clone()
	if msg != "" {
		clone.Message = msg
	}
	if src != nil {
		clone.Source = src
	}
	return clone.WithMetadata(map[string]any{
		"operation": string(op),
	})
}

func invalidData(op Operation, msg string, src error) error {
	return newHandlerError(ErrInvalidData, op, msg, src)
}

func unauthorized(op Operation, msg string, src error) error {
	return newHandlerError(ErrUnauthorized, op, msg, src)
}

func unknown(op Operation, msg string, src error) error {
	return newHandlerError(ErrUnknown, op, msg, src)
}

func doesNotSupport(op Operation, msg string) error {
	return newHandlerError(ErrDoesNotSupport, op, msg, nil)
}

func configInvalid(msg string, src error) error {
	return newHandlerError(ErrConfigInvalid, OpInitConfig, msg, src)
}

func textCodeOf(err error) string {
	var rich *errors.Error
	if err == nil || !errors.As(err, &rich) || rich == nil {
		return ""
	}
	return rich.TextCode
}

// KindOf returns the handler level kind of err, KindUnknown for foreign
// errors and KindNone for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if kind, ok := kindByTextCode[textCodeOf(err)]; ok {
		return kind
	}
	return KindUnknown
}

// IsInvalidData checks for rejected input
func IsInvalidData(err error) bool {
	return textCodeOf(err) == TextCodeInvalidData
}

// IsUnauthorized checks for refused credentials
func IsUnauthorized(err error) bool {
	return textCodeOf(err) == TextCodeUnauthorized
}

// IsUnknown checks for infrastructure failures
func IsUnknown(err error) bool {
	return textCodeOf(err) == TextCodeUnknown
}

// IsDoesNotSupport checks for unsupported operations
func IsDoesNotSupport(err error) bool {
	return textCodeOf(err) == TextCodeDoesNotSupport
}

// IsConfigInvalid checks for configuration errors
func IsConfigInvalid(err error) bool {
	return textCodeOf(err) == TextCodeConfigInvalid
}

// IsInvalidToken checks for tokens failing signature, format or expiry checks
func IsInvalidToken(err error) bool {
	return textCodeOf(err) == TextCodeInvalidToken
}

// IsWrongTokenType checks for tokens presented in the wrong mode
func IsWrongTokenType(err error) bool {
	return textCodeOf(err) == TextCodeWrongTokenType
}
