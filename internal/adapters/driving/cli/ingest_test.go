package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [space-id] [file]", ingestCmd.Use)
}

func TestIngestCmd_Short(t *testing.T) {
	assert.Equal(t, "Ingest a document into a knowledge space", ingestCmd.Short)
}

func TestIngestCmd_Long(t *testing.T) {
	assert.Contains(t, ingestCmd.Long, "chunking")
	assert.Contains(t, ingestCmd.Long, "every step succeeds")
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts between 1 and 2 arg(s)")
}

func TestIngestCmd_HasTitleFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("title")
	require.NotNil(t, flag, "title flag should exist")
	assert.Equal(t, "t", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestIngestCmd_HasURLFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("url")
	require.NotNil(t, flag, "url flag should exist")
	assert.Equal(t, "u", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestIngestCmd_ErrorsWithoutService(t *testing.T) {
	oldIngestor := ingestor
	ingestor = nil
	defer func() { ingestor = oldIngestor }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "eng", "notes.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_IngestsFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "release-notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("The release ships on Friday."), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "eng", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `Ingested "release-notes" into space eng`)
	assert.Contains(t, buf.String(), "doc-123")
	assert.Equal(t, "eng", ts.ingestor.lastSpaceID)
	assert.Equal(t, "release-notes", ts.ingestor.lastTitle, "title defaults to the file name without extension")
	assert.Equal(t, "The release ships on Friday.", ts.ingestor.lastText)
}

func TestIngestCmd_TitleFlagOverridesFileName(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "misc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Some content."), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "-t", "Q3 Planning", "eng", path})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestTitle = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "Q3 Planning", ts.ingestor.lastTitle)
}

func TestIngestCmd_MissingFileErrors(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "eng", filepath.Join(t.TempDir(), "missing.txt")})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestIngestCmd_RequiresFileWithoutURL(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "eng"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file path is required")
}

func TestIngestCmd_IngestsURL(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "--url", "https://example.com/post", "eng"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestURL = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Fetching https://example.com/post")
	assert.Contains(t, buf.String(), "Ingested https://example.com/post into space eng")
	assert.Equal(t, "https://example.com/post", ts.ingestor.lastURL)
}

func TestIngestCmd_RejectsFileAndURL(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "--url", "https://example.com", "eng", "notes.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestURL = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

func TestIngestCmd_WrapsIngestError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingestor.ingestErr = domain.ErrExtraction

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("whitespace only"), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", "eng", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ingest document")
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
