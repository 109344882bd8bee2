package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devchat-app/aidebug/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample .aidebug.yaml",
	Long: `Create a .aidebug.yaml in the current directory holding every
setting at its default value.

Examples:
  # Create the file
  aidebug init

  # Replace an existing file
  aidebug init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

// Flags for init command
var (
	initForce bool
	initPath  string
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
	initCmd.Flags().StringVar(&initPath, "path", ".aidebug.yaml", "Where to write the file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteFile(config.DefaultConfig(), initPath, initForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", initPath)
	return nil
}
