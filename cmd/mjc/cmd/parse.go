package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a MiniJava file and print its AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		program, _, err := parseFile(args[0])
		if err != nil {
			return err
		}
		fmt.Print(program.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
