// Package cli provides the cobra command-line interface. Commands call
// the driving ports; services are injected once at startup through
// SetServices.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/corpora/internal/core/domain"
	"github.com/corpora-labs/corpora/internal/core/ports/driving"
	"github.com/corpora-labs/corpora/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// DocumentLister lists documents for display commands.
type DocumentLister interface {
	ListDocuments(ctx context.Context, spaceID string) ([]domain.Document, error)
}

// SpaceDirectory lists the configured knowledge spaces.
type SpaceDirectory interface {
	Spaces() []domain.Space
}

// Injected services. Commands fail with a clear error when a service is
// missing, so tests can exercise commands with partial wiring.
var (
	ingestor    driving.Ingestor
	queryEngine driving.QueryEngine
	documents   DocumentLister
	spaceDir    SpaceDirectory
)

// verboseFlag enables pipeline logging to stderr.
var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "corpora",
	Short: "Permission-aware document Q&A",
	Long: `Corpora ingests documents into knowledge spaces and answers
questions against them. Retrieval is scoped to the spaces the asking
user may read; questions and answers are never stored.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose pipeline logging")
}

// SetServices wires the services the commands depend on.
func SetServices(ing driving.Ingestor, qe driving.QueryEngine, docs DocumentLister, spaces SpaceDirectory) {
	ingestor = ing
	queryEngine = qe
	documents = docs
	spaceDir = spaces
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
