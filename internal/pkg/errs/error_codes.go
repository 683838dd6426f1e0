/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system failures both inside
the server and in responses to clients. The real-time layer never puts a code
on the wire beyond the generic error signal; codes there are a logging and
testing concern.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates the request rate exceeded the per-IP limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Chat and Room Business Logic Errors
const (
	// ErrChatNotFound indicates that the referenced chat does not exist,
	// typically a stale reference to a deleted chat.
	ErrChatNotFound = 2101

	// ErrNotParticipant indicates the acting user is not a participant of the
	// target chat. Non-fatal: the connection stays open.
	ErrNotParticipant = 2102

	// ErrMessageInvalid indicates a malformed or oversized message payload.
	ErrMessageInvalid = 2201
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates the credential is missing, malformed, expired,
	// or has an invalid signature. Fatal to a handshake.
	ErrUnauthorized = 3001

	// ErrUserNotFound indicates the credential resolved to no stored user,
	// e.g. a still-valid token for a deleted account.
	ErrUserNotFound = 3002

	// ErrInvalidUsername indicates a username that fails the registration rules.
	ErrInvalidUsername = 3003

	// ErrInvalidPassword indicates a password outside the accepted length range.
	ErrInvalidPassword = 3004

	// ErrUserAlreadyExists indicates the registration username is taken.
	ErrUserAlreadyExists = 3005

	// ErrInvalidCredentials indicates a failed username/password login.
	ErrInvalidCredentials = 3006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrSecretUnconfigured indicates the token secret is missing, which is a
	// server misconfiguration rather than a client auth failure.
	ErrSecretUnconfigured = 5001

	// ErrStoreFailure indicates a persistence collaborator failure. Aborts the
	// current event's processing only.
	ErrStoreFailure = 5002
)
