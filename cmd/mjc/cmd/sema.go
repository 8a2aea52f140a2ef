package cmd

import (
	"github.com/spf13/cobra"
)

var semaCmd = &cobra.Command{
	Use:   "sema [file]",
	Short: "Run parsing and semantic analysis; silent on success",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		program, source, err := parseFile(args[0])
		if err != nil {
			return err
		}
		_, err = analyzeProgram(program, source, args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(semaCmd)
}
