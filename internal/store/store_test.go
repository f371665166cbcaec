package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behavior every backend must share.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("read missing key", func(t *testing.T) {
		v, ok, err := s.Read(ctx, "lastfm:nobody")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("write then read", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "lastfm:alice", "alicelfm"))

		v, ok, err := s.Read(ctx, "lastfm:alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "alicelfm", v)
	})

	t.Run("write replaces", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "lastfm:alice", "alice_again"))

		v, ok, err := s.Read(ctx, "lastfm:alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "alice_again", v)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "lastfm:bob", "bobtunes"))
		require.NoError(t, s.Write(ctx, "other:carol", "x"))
		require.NoError(t, s.Write(ctx, "lastfm%:odd", "y"))

		keys, err := s.Keys(ctx, "lastfm:")
		require.NoError(t, err)
		assert.Equal(t, []string{"lastfm:alice", "lastfm:bob"}, keys)

		all, err := s.Keys(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "lastfm:bob"))
		require.NoError(t, s.Delete(ctx, "lastfm:never-set"))

		_, ok, err := s.Read(ctx, "lastfm:bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSQLite_Memory(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	testStore(t, s)
}

func TestSQLite_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aikta.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "lastfm:bob", "bobtunes"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Read(ctx, "lastfm:bob")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bobtunes", v)
}

func TestBolt(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "aikta.bolt"))
	require.NoError(t, err)
	defer s.Close()

	testStore(t, s)
}

func TestBolt_Closed(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "aikta.bolt"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Read(context.Background(), "lastfm:alice")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMock(t *testing.T) {
	m := NewMock(nil)
	testStore(t, m)

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
	_, _, err := m.Read(context.Background(), "lastfm:alice")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("AIKTA_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("AIKTA_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	for _, k := range keys {
		require.NoError(t, s.Delete(ctx, k))
	}

	testStore(t, s)
}

func TestOpen_Schemes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		want    any
		wantErr bool
	}{
		{name: "sqlite", url: "sqlite://" + filepath.Join(dir, "a.db"), want: &SQLite{}},
		{name: "sqlite memory", url: "sqlite://:memory:", want: &SQLite{}},
		{name: "bolt", url: "bolt://" + filepath.Join(dir, "a.bolt"), want: &Bolt{}},
		{name: "missing scheme", url: filepath.Join(dir, "a.db"), wantErr: true},
		{name: "unknown scheme", url: "redis://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestDefaultURL_DataDir(t *testing.T) {
	u, err := DefaultURL("/data")
	require.NoError(t, err)
	assert.Equal(t, "sqlite://"+filepath.Join("/data", "aikta.db"), u)
}
