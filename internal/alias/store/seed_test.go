package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
aliases:
  - code: abc123
    destination: https://example.com
    tags: [Promo, spring]
  - code: exp1
    destination: https://expired.example.com
    created_at: 2026-01-01T00:00:00Z
    expires_at: 2026-01-02T00:00:00Z
`

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	reg := NewInMemory()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	n, err := LoadSeed(ctx, path, reg, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, err := reg.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, now, a.CreatedAt)
	assert.Equal(t, []string{"promo", "spring"}, a.Tags)

	exp, err := reg.Lookup(ctx, "exp1")
	require.NoError(t, err)
	require.NotNil(t, exp.ExpiresAt)
	assert.True(t, exp.IsExpired(now))

	again, err := LoadSeed(ctx, path, reg, now)
	require.NoError(t, err)
	assert.Zero(t, again, "existing codes are skipped")
}

func TestLoadSeedRejectsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  - code: bad\n    destination: ftp://nope\n"), 0o600))

	_, err := LoadSeed(context.Background(), path, NewInMemory(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}
