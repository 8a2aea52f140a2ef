package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-mjc/internal/interp"
	"github.com/cwbudde/go-mjc/internal/ir"
)

var (
	printIR   bool
	printIRPP bool
	showCFG   bool
)

var codegenCmd = &cobra.Command{
	Use:   "codegen [file]",
	Short: "Compile a MiniJava file to MJIR and run it",
	Long: `Run the full pipeline: lexing, parsing, semantic analysis and IR
generation. By default the resulting MJIR is executed by the
interpreter; the flags print it instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		module, err := compileFile(args[0])
		if err != nil {
			return err
		}

		switch {
		case printIR:
			printRawIR(module.Instructions())
		case printIRPP:
			fmt.Println(ir.FormatListing(module.Instructions()))
		case showCFG:
			printCFGs(module)
		default:
			return runInterpreter(module.Instructions())
		}
		return nil
	},
}

// runInterpreter executes an instruction list and maps failures onto
// the exit-1 convention.
func runInterpreter(code []ir.Instruction) error {
	vm := interp.New(os.Stdout)
	if err := vm.Run(code); err != nil {
		if _, assertion := err.(*interp.AssertionError); !assertion {
			fmt.Println(err.Error())
		}
		return errCompilationFailed
	}
	return nil
}

func init() {
	rootCmd.AddCommand(codegenCmd)

	codegenCmd.Flags().BoolVar(&printIR, "ir", false, "print raw MJIR instead of running")
	codegenCmd.Flags().BoolVar(&printIRPP, "ir-pp", false, "pretty-print MJIR instead of running")
	codegenCmd.Flags().BoolVarP(&showCFG, "cfg", "c", false, "print per-method CFGs instead of running")
}
