package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mjc",
	Short: "MiniJava compiler and MJIR toolchain",
	Long: `go-mjc is a compiler front and middle end for MiniJava, a statically
typed, class-based subset of Java.

The pipeline lowers source text through lexing, parsing, semantic
analysis and three-address MJIR code organized as per-method
control-flow graphs. A dataflow pass runs reaching-definitions and
live-variable analyses to drive constant propagation and dead-code
elimination, and an interpreter executes the MJIR directly.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to mjc.yaml configuration")
}
