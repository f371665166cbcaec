// Package store persists which Last.fm account belongs to which chat user.
// Backends are picked by URL scheme: sqlite://, postgres:// or bolt://.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	logging "github.com/ipfs/go-log/v2"
)

const (
	appName    = "aikta"
	dbFileName = "aikta.db"
)

var log = logging.Logger("store")

// Open opens the store described by rawURL.
func Open(ctx context.Context, rawURL string) (Store, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid store url %q: missing scheme", rawURL)
	}

	log.Infow("opening store", "backend", scheme)

	var (
		s   Store
		err error
	)
	switch scheme {
	case "sqlite":
		s, err = OpenSQLite(ctx, rest)
	case "postgres", "postgresql":
		s, err = OpenPostgres(ctx, rawURL)
	case "bolt", "bbolt":
		s, err = OpenBolt(rest)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultURL returns the sqlite store location: dataDir/aikta.db when
// dataDir is set, the XDG data directory otherwise.
func DefaultURL(dataDir string) (string, error) {
	if dataDir != "" {
		return "sqlite://" + filepath.Join(dataDir, dbFileName), nil
	}
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return "", fmt.Errorf("resolve data path: %w", err)
	}
	return "sqlite://" + path, nil
}

// ensureDir creates the parent directory of a database file.
func ensureDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
