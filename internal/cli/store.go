package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/localcortex/lattice/internal/store"
)

var (
	storeURL    string
	storeBranch string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage indexed stores (file, repo, or web)",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered store",
	RunE:  runStoreList,
}

var storeInfoCmd = &cobra.Command{
	Use:   "info <store>",
	Short: "Show a single store's details",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreInfo,
}

var storeCreateFileCmd = &cobra.Command{
	Use:   "create-file <name> <path>",
	Short: "Register a local directory as a file store",
	Args:  cobra.ExactArgs(2),
	RunE:  runStoreCreateFile,
}

var storeCreateRepoCmd = &cobra.Command{
	Use:   "create-repo <name>",
	Short: "Clone a git repository and register it as a repo store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreCreateRepo,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <store>",
	Short: "Delete a store and cascade-drop its tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd, storeInfoCmd, storeCreateFileCmd, storeCreateRepoCmd, storeDeleteCmd)

	storeCreateRepoCmd.Flags().StringVar(&storeURL, "url", "", "git repository URL (required)")
	storeCreateRepoCmd.Flags().StringVar(&storeBranch, "branch", "", "branch to check out (default: remote default)")
	storeCreateRepoCmd.MarkFlagRequired("url")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runStoreList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	return printJSON(a.Catalog.List(""))
}

func runStoreInfo(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	s, err := a.Catalog.GetByIDOrName(args[0])
	if err != nil {
		return err
	}
	return printJSON(s)
}

func runStoreCreateFile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	s, err := a.Catalog.CreateFile(args[0], args[1])
	if err != nil {
		return err
	}
	return printJSON(s)
}

func runStoreCreateRepo(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}

	s, err := a.Catalog.CreateRepo(args[0], storeURL, storeBranch, "")
	if err != nil {
		return err
	}

	repoPath := filepath.Join(a.Config.Storage.DataDir, "repos", s.ID)
	if !quietFlag {
		fmt.Printf("Cloning %s into %s...\n", storeURL, repoPath)
	}
	if err := store.CloneRepo(storeURL, storeBranch, repoPath); err != nil {
		return err
	}
	if err := a.Catalog.SetRepoPath(s.ID, repoPath); err != nil {
		return err
	}
	s.RepoPath = repoPath
	return printJSON(s)
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	if err := a.Catalog.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted store %q\n", args[0])
	return nil
}
