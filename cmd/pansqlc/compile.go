package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/pansqlc/internal/cli"
	"github.com/pthm/pansqlc/internal/emitter"
	"github.com/pthm/pansqlc/pkg/compiler"
)

var (
	compileScriptsDir string
	compileOutputDir  string
)

var compileCmd = &cobra.Command{
	Use:   "compile <script>",
	Short: "Compile a single script into generated program source and manifests",
	Long: `Compile one script into three build artifacts: the generated
program source, the project manifest, and the connectors manifest.
No multi-script network pairing is attempted; use compile-files for a
handoff between scripts.`,
	Args: cobra.ExactArgs(1),
	Example: `  # Compile a single script, artifacts written beside it
  pansqlc compile sync.pansql

  # Compile to a specific output directory
  pansqlc compile --output-dir build sync.pansql`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		scriptsDir := resolveString(compileScriptsDir, cfg.Compile.ScriptsDir, cfg.ScriptsDir)

		raw, err := os.ReadFile(filepath.Join(scriptsDir, name))
		if err != nil {
			return cli.IOError(fmt.Sprintf("reading script %q", name), err)
		}

		result, err := compiler.Compile(name, string(raw), compiler.FileDictionaryLoader(scriptsDir))
		if err != nil {
			return cli.ScriptParseError(fmt.Sprintf("compiling %q", name), err)
		}

		outputDir := resolveString(compileOutputDir, cfg.ResolvedOutputDir(), scriptsDir)
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return cli.IOError("creating output directory", err)
		}
		if err := writeArtifacts(outputDir, name, result.Artifacts); err != nil {
			return err
		}

		if !quiet {
			fmt.Printf("compiled %s -> %s\n", name, outputDir)
			for _, w := range result.Warnings.All() {
				fmt.Printf("  warning: %s\n", w.Message)
			}
		}
		return nil
	},
}

// writeArtifacts writes a script's three build artifacts under outputDir,
// named after the script with its extension replaced.
func writeArtifacts(outputDir, scriptName string, artifacts emitter.Artifacts) error {
	base := strings.TrimSuffix(filepath.Base(scriptName), filepath.Ext(scriptName))
	files := map[string]string{
		base + ".sync.cs":             artifacts.ProgramSource,
		base + ".pansqlproj":          artifacts.ProjectManifest,
		base + ".connectors.manifest": artifacts.ConnectorsManifest,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(content), 0o644); err != nil {
			return cli.IOError(fmt.Sprintf("writing %s", name), err)
		}
	}
	return nil
}

func init() {
	compileCmd.Flags().StringVar(&compileScriptsDir, "scripts-dir", "", "directory the script and its dictionaries are read from")
	compileCmd.Flags().StringVar(&compileOutputDir, "output-dir", "", "directory build artifacts are written to (default: beside the script)")
}
