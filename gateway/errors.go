package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a backend failure. Callers branch on kinds instead of
// matching error message text:
//
//	var gwErr *gateway.Error
//	if errors.As(err, &gwErr) {
//	    if gwErr.Kind == gateway.KindInvalidToken { ... }
//	}
type Kind string

const (
	// KindRoomNotFound: the room id does not exist.
	KindRoomNotFound Kind = "room_not_found"
	// KindBadPassword: the room exists but the password is wrong.
	KindBadPassword Kind = "invalid_password"
	// KindInvalidToken: the session token is expired or revoked.
	KindInvalidToken Kind = "invalid_token"
	// KindTransport: the request never produced a backend verdict
	// (network fault, malformed response, non-JSON body).
	KindTransport Kind = "transport"
	// KindUnknown: the backend reported failure without a recognizable code.
	KindUnknown Kind = "unknown"
)

// Error is a structured failure from the room backend.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status of the response, 0 for transport faults
	// that never got one.
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

// IsKind checks whether err is a *Error with the given kind.
func IsKind(err error, kind Kind) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind == kind
	}
	return false
}

// classify maps a backend failure envelope to a Kind. Newer backends send
// a machine-readable error_code; older ones only a message, for which the
// legacy phrasing is matched here and nowhere else.
func classify(code, message string) Kind {
	switch code {
	case "room_not_found":
		return KindRoomNotFound
	case "invalid_password":
		return KindBadPassword
	case "invalid_token", "session_expired":
		return KindInvalidToken
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "room not found"):
		return KindRoomNotFound
	case strings.Contains(lower, "password"):
		return KindBadPassword
	case strings.Contains(lower, "token"), strings.Contains(lower, "session"):
		return KindInvalidToken
	}
	return KindUnknown
}
