package lastfm

import (
	"context"
	"errors"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"
)

// Verifier checks that a Last.fm account exists before it gets remembered.
// It always talks to the public Last.fm endpoint.
type Verifier struct {
	lookup func(username string) (string, error)
}

// NewVerifier creates a Verifier. Account lookups need no API secret.
// lastfm-go gives no control over its http.Client, so callers bound
// Verify with a context deadline.
func NewVerifier(apiKey string) *Verifier {
	api := lastfm.New(apiKey, "")
	return &Verifier{lookup: func(username string) (string, error) {
		info, err := api.User.GetInfo(lastfm.P{"user": username})
		return info.Name, err
	}}
}

// Verify looks the account up with user.getInfo and returns its canonical
// name. ErrUnknownUser is returned when the account does not exist.
func (v *Verifier) Verify(ctx context.Context, username string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		name string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		name, err := v.lookup(username)
		done <- result{name: name, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", classifyLookupError(username, r.err)
		}
		if r.name == "" {
			return username, nil
		}
		return r.name, nil
	}
}

func classifyLookupError(username string, err error) error {
	var lfErr *lastfm.LastfmError
	if errors.As(err, &lfErr) && lfErr.Code == codeInvalidParameters {
		return fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	return fmt.Errorf("get user info: %w", err)
}
