// Package errmsg provides consistent error formatting for chat replies.
package errmsg

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/aikta/internal/lastfm"
)

// Op represents an operation that can fail.
type Op string

// Operation constants.
const (
	OpNowPlaying    Op = "fetch now playing"
	OpLookupAccount Op = "look up your last.fm account"
	OpSaveAccount   Op = "save your last.fm account"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, Cause(err))
}

// Reply addresses a formatted error to a chat user.
func Reply(nick string, op Op, err error) string {
	if err == nil {
		return ""
	}
	return nick + ": " + Format(op, err)
}

// Cause summarizes err for a chat line. Internal details such as request
// URLs or driver messages never reach the channel.
func Cause(err error) string {
	var apiErr *lastfm.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, lastfm.ErrUnknownUser):
		return "unknown last.fm user"
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "last.fm says: " + apiErr.Message
		}
		return fmt.Sprintf("last.fm returned status %d", apiErr.Status)
	default:
		return "service unavailable"
	}
}
