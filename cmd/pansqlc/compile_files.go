package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/pansqlc/internal/cli"
	"github.com/pthm/pansqlc/pkg/compiler"
)

var compileFilesOutputDir string

var compileFilesCmd = &cobra.Command{
	Use:   "compile-files <root> <script...>",
	Short: "Compile a set of scripts that hand off to each other over Network",
	Long: `Compile a set of scripts under root, in the order given. The
scripts are linked together before anything is emitted, so a Network
writer in an earlier script pairs with a reader in a later one and both
programs end up sharing the same handoff temp file.`,
	Args: cobra.MinimumNArgs(2),
	Example: `  # Compile an upstream/downstream handoff, in hand-off order
  pansqlc compile-files . upstream.pansql downstream.pansql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, names := args[0], args[1:]

		filesResult, err := compiler.CompileFiles(root, names...)
		if err != nil {
			return cli.ScriptParseError("compiling scripts", err)
		}

		outputDir := resolveString(compileFilesOutputDir, cfg.ResolvedOutputDir(), root)
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return cli.IOError("creating output directory", err)
		}

		for _, name := range names {
			result := filesResult.Scripts[name]
			if err := writeArtifacts(outputDir, name, result.Artifacts); err != nil {
				return err
			}
			if !quiet {
				fmt.Printf("compiled %s -> %s\n", name, outputDir)
				for _, w := range result.Warnings.All() {
					fmt.Printf("  warning: %s\n", w.Message)
				}
			}
		}

		if !quiet && len(filesResult.TempFiles) > 0 {
			fmt.Println("network handoff files (ship these alongside the build output):")
			for _, f := range filesResult.TempFiles {
				fmt.Printf("  %s\n", f.Path)
			}
		}

		return nil
	},
}

func init() {
	compileFilesCmd.Flags().StringVar(&compileFilesOutputDir, "output-dir", "", "directory build artifacts are written to (default: root)")
}
