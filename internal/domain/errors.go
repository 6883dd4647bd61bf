package domain

import "errors"

// Kind classifies an error by how it should surface to API callers.
type Kind int

const (
	// KindInternal covers anything unexpected. It is never exposed in detail.
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
	KindPersistence
	KindConfiguration
)

// String returns the name used in the "error" field of response bodies.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindPersistence:
		return "PersistenceError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "InternalError"
	}
}

// Reasons refine a Kind. They are safe to return to callers.
const (
	// Authentication reasons
	ReasonExpired                 = "expired"
	ReasonInvalidSignature        = "invalid_signature"
	ReasonInvalidIssuerOrAudience = "invalid_issuer_or_audience"
	ReasonMalformed               = "malformed"
	ReasonMissing                 = "missing"
	ReasonInvalidCredentials      = "invalid_credentials"

	// Persistence reasons
	ReasonConflict = "conflict"
	ReasonCanceled = "canceled"
	ReasonFailure  = "failure"

	// Validation / negotiation reasons
	ReasonAmbiguousVersion   = "ambiguous_version"
	ReasonInvalidVersion     = "invalid_version"
	ReasonUnsupportedVersion = "unsupported_version"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error type. Message is safe for API callers;
// Err holds the internal cause and is only ever logged.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Fields  []FieldError
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += "(" + e.Reason + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the internal cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Reason and Message when the target sets them.
// This lets sentinels such as ErrTokenExpired or store.ErrBookNotFound work
// with errors.Is, while ErrNotFound still matches every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// ErrInvalidID is returned by entity validation when an identifier is unset.
var ErrInvalidID = errors.New("invalid ID")

// Sentinels for errors.Is checks.
var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrPersistence    = &Error{Kind: KindPersistence}
	ErrConfiguration  = &Error{Kind: KindConfiguration}

	ErrTokenExpired          = &Error{Kind: KindAuthentication, Reason: ReasonExpired}
	ErrTokenInvalidSignature = &Error{Kind: KindAuthentication, Reason: ReasonInvalidSignature}
	ErrTokenInvalidIssuer    = &Error{Kind: KindAuthentication, Reason: ReasonInvalidIssuerOrAudience}
	ErrTokenMalformed        = &Error{Kind: KindAuthentication, Reason: ReasonMalformed}
	ErrTokenMissing          = &Error{Kind: KindAuthentication, Reason: ReasonMissing}
	ErrInvalidCredentials    = &Error{Kind: KindAuthentication, Reason: ReasonInvalidCredentials}
	ErrPersistenceConflict   = &Error{Kind: KindPersistence, Reason: ReasonConflict}
	ErrPersistenceCanceled   = &Error{Kind: KindPersistence, Reason: ReasonCanceled}
	ErrUnsupportedVersion    = &Error{Kind: KindNotFound, Reason: ReasonUnsupportedVersion}
	ErrAmbiguousVersion      = &Error{Kind: KindValidation, Reason: ReasonAmbiguousVersion}
	ErrInvalidVersion        = &Error{Kind: KindValidation, Reason: ReasonInvalidVersion}
)

// NewAuthenticationError creates an AuthenticationError with the given reason.
func NewAuthenticationError(reason, message string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Reason: reason, Message: message, Err: cause}
}

// NewAuthorizationError creates an AuthorizationError.
func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NewValidationError creates a ValidationError carrying optional field errors.
func NewValidationError(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NewPersistenceError creates a PersistenceError. The cause is kept for logs only.
func NewPersistenceError(reason, message string, cause error) *Error {
	return &Error{Kind: KindPersistence, Reason: reason, Message: message, Err: cause}
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(message string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
