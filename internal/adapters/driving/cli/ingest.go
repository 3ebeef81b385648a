package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

var (
	ingestTitle string
	ingestURL   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [space-id] [file]",
	Short: "Ingest a document into a knowledge space",
	Long: `Reads a text file (or fetches a URL with --url) and runs the full
ingestion pipeline: extraction, chunking, embedding, and indexing.
The document becomes retrievable only once every step succeeds.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVarP(&ingestURL, "url", "u", "", "fetch and ingest a URL instead of a file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	spaceID := args[0]
	ctx := context.Background()

	if ingestURL != "" {
		if len(args) > 1 {
			return errors.New("provide either a file or --url, not both")
		}

		cmd.Printf("Fetching %s...\n", ingestURL)
		doc, err := ingestor.IngestURL(ctx, spaceID, ingestURL)
		if err != nil {
			return fmt.Errorf("failed to ingest URL: %w", err)
		}

		cmd.Printf("Ingested %s into space %s (document %s)\n", ingestURL, spaceID, doc.ID)
		return nil
	}

	if len(args) < 2 {
		return errors.New("a file path is required unless --url is given")
	}
	filePath := args[1]

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	title := ingestTitle
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	doc, err := ingestor.IngestDocument(ctx, spaceID, domain.SourceUpload, title, string(data))
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	cmd.Printf("Ingested %q into space %s (document %s)\n", title, spaceID, doc.ID)
	return nil
}
