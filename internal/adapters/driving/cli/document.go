package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, summarise, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [space-id]",
	Short: "List documents in a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentSummaryCmd = &cobra.Command{
	Use:   "summary [doc-id]",
	Short: "Print the generated summary of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSummary,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes the document, its chunks, its vectors, and any graph data derived from it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentSummaryCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documents == nil {
		return errors.New("document service not configured")
	}

	spaceID := args[0]
	ctx := context.Background()

	docs, err := documents.ListDocuments(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found in space: %s\n", spaceID)
		return nil
	}

	cmd.Printf("Documents in space %s:\n\n", spaceID)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:   %s\n", docs[i].Title)
		cmd.Printf("    Source:  %s\n", docs[i].SourceType)
		cmd.Printf("    Status:  %s\n", docs[i].Status)
		cmd.Printf("    Created: %s\n", docs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentSummary(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]

	summary, err := ingestor.GetSummary(context.Background(), docID)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}

	if summary == "" {
		cmd.Println("No summary available yet.")
		return nil
	}

	cmd.Println(summary)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]

	if err := ingestor.DeleteDocument(context.Background(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}
