package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/go-mjc/internal/ast"
	"github.com/cwbudde/go-mjc/internal/config"
	"github.com/cwbudde/go-mjc/internal/errors"
	"github.com/cwbudde/go-mjc/internal/ir"
	"github.com/cwbudde/go-mjc/internal/lexer"
	"github.com/cwbudde/go-mjc/internal/parser"
	"github.com/cwbudde/go-mjc/internal/semantic"
)

// errCompilationFailed signals a diagnostic already written to stdout.
// The process exits 1 without further output.
var errCompilationFailed = fmt.Errorf("compilation failed")

// diagColor decides whether the stderr source-context excerpts use
// ANSI colors. It defaults to the terminal check and follows the
// loaded configuration's diagnostics.color once a config is resolved.
var diagColor = errors.ColorEnabled

// loadConfig resolves the configuration: --config when given,
// otherwise an mjc.yaml next to the input file when present.
func loadConfig(inputPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadIfPresent(filepath.Join(filepath.Dir(inputPath), config.DefaultFileName))
	}
	if err != nil {
		return nil, err
	}
	diagColor = cfg.UseColor
	return cfg, nil
}

// parseFile reads and parses a source file, returning the AST and the
// source text. Lexer and parser errors are written to stdout in their
// fixture shapes.
func parseFile(path string) (*ast.Program, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Input %s not found\n", path)
		return nil, "", errCompilationFailed
	}

	source := string(content)
	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	if lexErrors := l.Errors(); len(lexErrors) > 0 {
		fmt.Println(lexErrors[0].Error())
		reportContext(lexErrors[0].Pos, lexErrors[0].Message, source, path)
		return nil, "", errCompilationFailed
	}
	if parseErrors := p.Errors(); len(parseErrors) > 0 {
		fmt.Println(parseErrors[0].Error())
		reportContext(parseErrors[0].Pos, parseErrors[0].Message, source, path)
		return nil, "", errCompilationFailed
	}
	return program, source, nil
}

// analyzeProgram runs symbol table construction and semantic analysis.
// Semantic errors are written to stdout in their fixture shape.
func analyzeProgram(program *ast.Program, source, path string) (*semantic.Registry, error) {
	builder := semantic.NewSymbolTableBuilder()
	registry, err := builder.Build(program)
	if err == nil {
		err = semantic.NewAnalyzer(registry).Analyze(program)
	}
	if err != nil {
		fmt.Println(err.Error())
		if semErr, ok := err.(*semantic.SemanticError); ok {
			reportContext(semErr.Pos, semErr.Error(), source, path)
		}
		return nil, errCompilationFailed
	}
	return registry, nil
}

// reportContext writes a caret-annotated source excerpt to stderr; the
// fixture-shaped diagnostic on stdout stays machine-readable.
func reportContext(pos lexer.Position, message, source, path string) {
	compilerErr := errors.NewCompilerError(pos, message, source, path)
	fmt.Fprintln(os.Stderr, compilerErr.Format(diagColor()))
}

// compileFile runs the front end and lowers the program to MJIR.
func compileFile(path string) (*ir.Module, error) {
	program, source, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	registry, err := analyzeProgram(program, source, path)
	if err != nil {
		return nil, err
	}
	return ir.NewGenerator(registry).Generate(program), nil
}

// printRawIR prints the instruction list in tuple form.
func printRawIR(code []ir.Instruction) {
	for _, instr := range code {
		fmt.Println(instr.String())
	}
}

// printCFGs renders each method's control-flow graph as text.
func printCFGs(module *ir.Module) {
	for _, cfg := range module.CFGs {
		fmt.Printf("CFG %s\n", cfg.MethodName)
		index := cfg.ByLabel()
		for _, block := range cfg.Blocks() {
			fmt.Printf("  block %s\n", block.Label)
			for _, instr := range block.Instrs {
				fmt.Printf("    %s\n", instr.String())
			}
			for _, succ := range cfg.Successors(block, index) {
				fmt.Printf("    -> %s\n", succ.Label)
			}
		}
	}
}
