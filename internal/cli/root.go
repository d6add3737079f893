// Package cli implements lattice's cobra command tree: store management,
// indexing (with optional fsnotify watch), search, job control, and the
// MCP stdio server, grounded on the teacher's internal/cli (root.go's
// persistent flags + viper binding, one file per subcommand).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/localcortex/lattice/internal/app"
)

var (
	rootDirFlag string
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "A hybrid code knowledge retrieval engine",
	Long: `lattice indexes source code and documentation into a hybrid
vector + full-text search engine, and serves layered, boosted,
deduplicated search results over an MCP stdio interface or the CLI
directly.`,
}

// Execute runs the root command. Called once from cmd/lattice's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "dir", "", "project root directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")

	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
}

func initConfig() {
	viper.AutomaticEnv()
}

// projectRoot resolves --dir, defaulting to the current working directory.
func projectRoot() (string, error) {
	if rootDirFlag != "" {
		return rootDirFlag, nil
	}
	return os.Getwd()
}

// openApp loads configuration and constructs every shared component for
// rootDir, the same wiring every subcommand needs.
func openApp() (*app.App, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	return app.New(root)
}
