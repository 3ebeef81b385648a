package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

var (
	askUser     string
	askDocument string
	askTopK     int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against your visible spaces",
	Long: `Retrieves the most relevant chunks from every space you may read
and generates an answer. Nothing about the question or the answer is
stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "U", "", "user ID to resolve space access (default: $USER)")
	askCmd.Flags().StringVarP(&askDocument, "doc", "d", "", "restrict retrieval to a single document ID")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryEngine == nil {
		return errors.New("query service not configured")
	}

	question := args[0]
	userID := askUser
	if userID == "" {
		userID = os.Getenv("USER")
	}
	if userID == "" {
		return errors.New("a user ID is required (--user or $USER)")
	}

	answer, err := queryEngine.Ask(context.Background(), question, userID, domain.QueryOptions{
		TopK:       askTopK,
		DocumentID: askDocument,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer)
	return nil
}
