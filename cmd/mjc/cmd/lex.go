package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-mjc/internal/lexer"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a MiniJava file and print the token stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Input %s not found\n", args[0])
			return errCompilationFailed
		}

		l := lexer.New(string(content))
		for {
			tok := l.NextToken()
			if tok.Type == lexer.EOF {
				break
			}
			fmt.Printf("LexToken(%s,%q,%d,%d)\n", tok.Type, tok.Literal, tok.Pos.Line, tok.Pos.Column)
		}
		if lexErrors := l.Errors(); len(lexErrors) > 0 {
			fmt.Println(lexErrors[0].Error())
			return errCompilationFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexCmd)
}
