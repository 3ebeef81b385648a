package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Manage knowledge spaces",
	Long:  `List configured spaces or delete a space's content.`,
}

var spaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured spaces",
	Args:  cobra.NoArgs,
	RunE:  runSpaceList,
}

var spaceDeleteCmd = &cobra.Command{
	Use:   "delete [space-id]",
	Short: "Delete every document in a space",
	Long: `Removes all documents, chunks, vectors, and graph data in the space.
Space definitions live in the access file and are not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpaceDelete,
}

func init() {
	spaceCmd.AddCommand(spaceListCmd)
	spaceCmd.AddCommand(spaceDeleteCmd)
	rootCmd.AddCommand(spaceCmd)
}

func runSpaceList(cmd *cobra.Command, _ []string) error {
	if spaceDir == nil {
		return errors.New("space directory not configured")
	}

	spaces := spaceDir.Spaces()
	if len(spaces) == 0 {
		cmd.Println("No spaces configured.")
		return nil
	}

	cmd.Println("Spaces:")
	cmd.Println()
	for _, space := range spaces {
		cmd.Printf("  %s\n", space.ID)
		cmd.Printf("    Name:       %s\n", space.Name)
		cmd.Printf("    Visibility: %s\n", space.Visibility)
		if space.Visibility == domain.VisibilityPrivate {
			cmd.Printf("    Members:    %d\n", len(space.Members))
		}
		cmd.Println()
	}

	return nil
}

func runSpaceDelete(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	spaceID := args[0]

	if err := ingestor.DeleteSpace(context.Background(), spaceID); err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}

	cmd.Printf("Space %s content deleted.\n", spaceID)
	return nil
}
