package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pthm/pansqlc/internal/cli"
	"github.com/pthm/pansqlc/pkg/compiler"
)

var validateScriptsDir string

var validateCmd = &cobra.Command{
	Use:   "validate [script...]",
	Short: "Validate script syntax and semantics",
	Long:  `Validate one or more scripts through the full compile pipeline without writing any build artifacts.`,
	Args:  cobra.MinimumNArgs(1),
	Example: `  # Validate a single script
  pansqlc validate sync.pansql

  # Validate a script read, with its dictionaries, from the scripts directory
  pansqlc validate --scripts-dir scripts sync.pansql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptsDir := resolveString(validateScriptsDir, cfg.Validate.ScriptsDir, cfg.ScriptsDir)
		loadDict := compiler.FileDictionaryLoader(scriptsDir)

		for _, name := range args {
			path := filepath.Join(scriptsDir, name)
			raw, err := os.ReadFile(path)
			if err != nil {
				return cli.IOError(fmt.Sprintf("reading script %q", name), err)
			}

			result, err := compiler.Compile(name, string(raw), loadDict)
			if err != nil {
				return cli.ScriptParseError(fmt.Sprintf("validating %q", name), err)
			}

			if !quiet {
				fmt.Printf("%s is valid\n", name)
				for _, w := range result.Warnings.All() {
					fmt.Printf("  warning: %s\n", w.Message)
				}
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateScriptsDir, "scripts-dir", "", "directory scripts and dictionaries are read from")
}
