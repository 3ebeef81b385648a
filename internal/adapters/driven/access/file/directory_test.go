package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

const accessFixture = `
[[spaces]]
id = "eng"
name = "Engineering"
visibility = "public"

[[spaces]]
id = "board"
name = "Board"
visibility = "private"
members = ["alice", "carol"]
`

func writeAccessFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestDirectory(t *testing.T, content string) *Directory {
	t.Helper()
	d, err := NewDirectory(writeAccessFile(t, content))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewDirectoryMissingFile(t *testing.T) {
	_, err := NewDirectory(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownVisibility(t *testing.T) {
	path := writeAccessFile(t, `
[[spaces]]
id = "x"
visibility = "secret"
`)
	_, err := NewDirectory(path)
	assert.ErrorContains(t, err, "unknown visibility")
}

func TestVisibleSpaces(t *testing.T) {
	d := newTestDirectory(t, accessFixture)
	ctx := context.Background()

	visible, err := d.VisibleSpaces(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"board", "eng"}, visible)

	visible, err = d.VisibleSpaces(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng"}, visible, "non-members see only public spaces")

	visible, err = d.VisibleSpaces(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng"}, visible)
}

func TestSpaceLookup(t *testing.T) {
	d := newTestDirectory(t, accessFixture)

	space, ok := d.Space("board")
	require.True(t, ok)
	assert.Equal(t, "Board", space.Name)
	assert.Equal(t, domain.VisibilityPrivate, space.Visibility)
	assert.Equal(t, []string{"alice", "carol"}, space.Members)

	_, ok = d.Space("missing")
	assert.False(t, ok)
}

func TestSpacesSorted(t *testing.T) {
	d := newTestDirectory(t, accessFixture)

	spaces := d.Spaces()
	require.Len(t, spaces, 2)
	assert.Equal(t, "board", spaces[0].ID)
	assert.Equal(t, "eng", spaces[1].ID)
}

func TestHotReload(t *testing.T) {
	path := writeAccessFile(t, accessFixture)
	d, err := NewDirectory(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	visible, err := d.VisibleSpaces(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng"}, visible)

	// Add bob to the private space; the watcher should pick it up.
	updated := accessFixture + `
[[spaces]]
id = "ops"
name = "Operations"
visibility = "private"
members = ["bob"]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0600))

	require.Eventually(t, func() bool {
		visible, err := d.VisibleSpaces(ctx, "bob")
		return err == nil && len(visible) == 2
	}, 3*time.Second, 20*time.Millisecond, "membership change not picked up")
}

func TestReloadKeepsLastGoodStateOnParseError(t *testing.T) {
	path := writeAccessFile(t, accessFixture)
	d, err := NewDirectory(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	// Give the watcher a moment to see the bad write.
	time.Sleep(200 * time.Millisecond)

	visible, err := d.VisibleSpaces(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"board", "eng"}, visible, "bad reload must not wipe the directory")
}
