package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-mjc/internal/dataflow"
	"github.com/cwbudde/go-mjc/internal/ir"
)

var (
	printOpt    bool
	printOptPP  bool
	showOptCFG  bool
	showSpeedup bool
)

var dataflowCmd = &cobra.Command{
	Use:   "dataflow [file]",
	Short: "Compile with dataflow optimizations and run the result",
	Long: `Run the full pipeline plus the dataflow pass: reaching-definitions
and live-variable analyses drive constant propagation, dead-code
elimination and CFG simplification. The speedup ratio between the
original and optimized instruction counts is reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}

		module, err := compileFile(args[0])
		if err != nil {
			return err
		}

		result := dataflow.Optimize(module, cfg.Options()...)

		if showSpeedup {
			fmt.Fprintf(os.Stderr, "[SPEEDUP] Default: %d Optimized: %d Speedup: %.2f\n\n",
				result.Before, result.After, result.Speedup())
		}

		switch {
		case printOpt:
			printRawIR(result.Code)
		case printOptPP:
			fmt.Println(ir.FormatListing(result.Code))
		case showOptCFG:
			printCFGs(module)
		default:
			return runInterpreter(result.Code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataflowCmd)

	dataflowCmd.Flags().BoolVar(&printOpt, "opt", false, "print optimized MJIR instead of running")
	dataflowCmd.Flags().BoolVar(&printOptPP, "opt-pp", false, "pretty-print optimized MJIR instead of running")
	dataflowCmd.Flags().BoolVarP(&showOptCFG, "cfg", "c", false, "print per-method optimized CFGs instead of running")
	dataflowCmd.Flags().BoolVar(&showSpeedup, "speedup", true, "report the pre/post instruction-count ratio on stderr")
}
