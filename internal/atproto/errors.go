package atproto

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is returned for any failed XRPC call: the request could not
// be sent, the server answered with a non-2xx status, or the body could not
// be decoded.
type TransportError struct {
	NSID       string
	StatusCode int    // 0 when no response was received
	Code       string // XRPC error name, e.g. "AuthenticationRequired"
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s failed (status %d): %s: %s", e.NSID, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed (status %d): %s", e.NSID, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s failed: %v", e.NSID, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsAuthError reports whether err is an XRPC rejection of the session's
// access token.
func IsAuthError(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Code {
	case "ExpiredToken", "InvalidToken":
		return true
	}
	return te.StatusCode == http.StatusUnauthorized
}

// ErrNotLoggedIn is returned by calls that need a session before Login succeeded.
var ErrNotLoggedIn = errors.New("atproto: not logged in")
