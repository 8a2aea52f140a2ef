package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-mjc/internal/lexer"
	"github.com/cwbudde/go-mjc/internal/parser"
	"github.com/cwbudde/go-mjc/internal/semantic"
)

// compile lowers a source program to its IR module.
func compile(t *testing.T, input string) *Module {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	require.Empty(t, p.Errors(), "parser errors")

	registry, err := semantic.NewSymbolTableBuilder().Build(program)
	require.NoError(t, err)
	require.NoError(t, semantic.NewAnalyzer(registry).Analyze(program))

	return NewGenerator(registry).Generate(program)
}

// methodCFG finds a method's CFG by suffix, e.g. ".main".
func methodCFG(t *testing.T, module *Module, suffix string) *CFG {
	t.Helper()
	for _, cfg := range module.CFGs {
		if strings.HasSuffix(cfg.MethodName, suffix) {
			return cfg
		}
	}
	t.Fatalf("no method CFG matching %q", suffix)
	return nil
}

// ops lists the opcodes of an instruction sequence.
func ops(instrs []Instruction) []string {
	names := make([]string, len(instrs))
	for i, instr := range instrs {
		names[i] = instr.Op
	}
	return names
}

func hasOp(instrs []Instruction, op string) bool {
	for _, instr := range instrs {
		if instr.Op == op {
			return true
		}
	}
	return false
}

func TestArithmeticLowering(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int x = 2 + 3 * 4;
			print(x);
		} }
	`)
	code := EmitBlocks(methodCFG(t, module, ".main"))

	require.True(t, hasOp(code, "literal_int"))
	require.True(t, hasOp(code, "mul_int"))
	require.True(t, hasOp(code, "add_int"))
	require.True(t, hasOp(code, "store_int"))
	require.True(t, hasOp(code, "load_int"))
	require.True(t, hasOp(code, "print_int"))
	require.True(t, hasOp(code, "return_void"))
}

func TestDefineAndEntryShape(t *testing.T) {
	module := compile(t, `
		class A { public int add(int a, int b) { return a + b; } }
	`)
	cfg := methodCFG(t, module, ".add")
	entry := cfg.Entry.Instrs

	require.Equal(t, "define_int", entry[0].Op)
	require.Equal(t, "@A.add", entry[0].Args[0])
	require.Equal(t, []string{"@A.add", "(int, %1)", "(int, %2)"}, entry[0].Args)
	require.Equal(t, "entry:", entry[1].Op)

	// Return slot first, then parameter spills.
	require.Equal(t, "alloc_int", entry[2].Op)
	require.Equal(t, "%3", entry[2].Args[0])
	require.Equal(t, []string{"alloc_int", "store_int", "alloc_int", "store_int"},
		ops(entry[3:7]))
	require.Equal(t, []string{"%1", "%a"}, entry[4].Args)
}

func TestExitBlockShape(t *testing.T) {
	module := compile(t, `
		class A { public int f() { return 7; } }
	`)
	cfg := methodCFG(t, module, ".f")

	exit := cfg.Exit.Instrs
	require.Equal(t, "exit:", exit[0].Op)
	require.Equal(t, "load_int", exit[1].Op)
	require.Equal(t, "return_int", exit[2].Op)

	// Every return stores into the slot and jumps to exit.
	var sawStoreThenJump bool
	for _, b := range cfg.Blocks() {
		for i := 0; i+1 < len(b.Instrs); i++ {
			if b.Instrs[i].Op == "store_int" && b.Instrs[i+1].Op == "jump" &&
				b.Instrs[i+1].Args[0] == "%exit" {
				sawStoreThenJump = true
			}
		}
	}
	require.True(t, sawStoreThenJump)
}

func TestIfLowering(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int x = 0;
			if (x < 1) { print(1); } else { print(2); }
			print(3);
		} }
	`)
	cfg := methodCFG(t, module, ".main")
	blocks := cfg.Blocks()

	var thenBlock, elseBlock, endBlock bool
	for _, b := range blocks {
		switch {
		case strings.HasSuffix(b.Label, ".then"):
			thenBlock = true
		case strings.HasSuffix(b.Label, ".else"):
			elseBlock = true
		case strings.HasSuffix(b.Label, ".end"):
			endBlock = true
		}
	}
	require.True(t, thenBlock && elseBlock && endBlock)

	// The entry ends in a cbranch with two successors.
	term, ok := cfg.Entry.Terminator()
	require.True(t, ok)
	require.Equal(t, "cbranch", term.Op)
	require.True(t, cfg.Entry.IsConditional())
	require.Len(t, cfg.Successors(cfg.Entry, cfg.ByLabel()), 2)
}

func TestWhileLoweringAndBreak(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int i = 0;
			while (i < 10) {
				if (i == 5) break;
				i = i + 1;
			}
			print(i);
		} }
	`)
	cfg := methodCFG(t, module, ".main")

	var condLabel, bodyLabel, endLabel string
	for _, b := range cfg.Blocks() {
		if strings.HasPrefix(b.Label, "while") {
			switch {
			case strings.HasSuffix(b.Label, ".cond"):
				condLabel = b.Label
			case strings.HasSuffix(b.Label, ".body"):
				bodyLabel = b.Label
			case strings.HasSuffix(b.Label, ".end"):
				endLabel = b.Label
			}
		}
	}
	require.NotEmpty(t, condLabel)
	require.NotEmpty(t, bodyLabel)
	require.NotEmpty(t, endLabel)

	// break lowers to a jump straight to while.end.
	var breakJump bool
	for _, b := range cfg.Blocks() {
		for _, instr := range b.Instrs {
			if instr.Op == "jump" && instr.Args[0] == "%"+endLabel &&
				strings.HasSuffix(b.Label, ".then") {
				breakJump = true
			}
		}
	}
	require.True(t, breakJump)
}

func TestForInitRenaming(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int i = 100;
			for (int i = 0; i < 3; i = i + 1) { print(i); }
			print(i);
		} }
	`)
	code := EmitBlocks(methodCFG(t, module, ".main"))

	// The loop variable is renamed with a numeric suffix; the outer
	// binding keeps its plain register.
	var renamed bool
	for _, instr := range code {
		for _, arg := range instr.Args {
			if arg == "%i.2" {
				renamed = true
			}
		}
	}
	require.True(t, renamed, "inner i not renamed:\n%s", FormatListing(code))
}

func TestStringLiteralDeduplication(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			print("hi");
			print("hi");
			print("other");
		} }
	`)

	var stringGlobals int
	for _, instr := range module.Text {
		if instr.Op == "global_String" {
			stringGlobals++
		}
	}
	require.Equal(t, 2, stringGlobals)
}

func TestCharArrayFromString(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			char[] cs = "abc";
			print(cs[1]);
		} }
	`)
	code := EmitBlocks(methodCFG(t, module, ".main"))

	require.True(t, hasOp(code, "alloc_char[]_3"))
	require.True(t, hasOp(code, "store_char[]"))
	require.True(t, hasOp(code, "elem_char[]"))
	require.True(t, hasOp(code, "load_char"))
}

func TestInitListLowering(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int[] a = {1, 2, 3};
			print(a[0]);
		} }
	`)

	var global Instruction
	for _, instr := range module.Text {
		if instr.Op == "global_int[]_3" {
			global = instr
		}
	}
	require.NotEmpty(t, global.Op, "missing global_int[]_3 constant")
	require.Equal(t, "[1, 2, 3]", global.Args[1])

	code := EmitBlocks(methodCFG(t, module, ".main"))
	require.True(t, hasOp(code, "alloc_int[]_3"))
	require.True(t, hasOp(code, "store_int[]_3"))
}

func TestClassAndFieldRecords(t *testing.T) {
	module := compile(t, `
		class A { int n = 7; }
		class B extends A { int m; }
		class Main { public static void main(String[] args) {
			B b = new B();
			print(b.n);
		} }
	`)

	listing := FormatListing(module.Decls)
	require.Contains(t, listing, "class @A")
	require.Contains(t, listing, "class @B A")
	require.Contains(t, listing, "field_int @A.n 7")
	// B inherits n under its own prefix.
	require.Contains(t, listing, "field_int @B.n 7")
	require.Contains(t, listing, "field_int @B.m")
}

func TestNewObjectAppliesDefaults(t *testing.T) {
	module := compile(t, `
		class A { int n = 7; }
		class Main { public static void main(String[] args) {
			A a = new A();
			print(a.n);
		} }
	`)
	code := EmitBlocks(methodCFG(t, module, ".main"))

	require.True(t, hasOp(code, "new_@A"))
	require.True(t, hasOp(code, "load_addr"))
	require.True(t, hasOp(code, "literal_int"))
}

func TestMethodCallLowering(t *testing.T) {
	module := compile(t, `
		class A { public int twice(int v) { return v + v; } }
		class Main { public static void main(String[] args) {
			A a = new A();
			print(a.twice(21));
		} }
	`)
	code := EmitBlocks(methodCFG(t, module, ".main"))

	var sawParam, sawCall bool
	for _, instr := range code {
		if instr.Op == "param_int" {
			sawParam = true
		}
		if instr.Op == "call_int" {
			sawCall = true
			require.Equal(t, "%a.@A.twice", instr.Args[0])
		}
	}
	require.True(t, sawParam)
	require.True(t, sawCall)
}

func TestAssertLowering(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int y = 3;
			assert y == 3;
		} }
	`)

	var failString bool
	for _, instr := range module.Text {
		if instr.Op == "global_String" && strings.Contains(instr.Args[1], "assertion_fail on") {
			failString = true
		}
	}
	require.True(t, failString)

	cfg := methodCFG(t, module, ".main")
	var falseJumpsToExit bool
	for _, b := range cfg.Blocks() {
		if strings.HasSuffix(b.Label, ".false") {
			term, ok := b.Terminator()
			require.True(t, ok)
			require.Equal(t, []string{"%exit"}, term.Args)
			require.True(t, hasOp(b.Instrs, "print_String"))
			falseJumpsToExit = true
		}
	}
	require.True(t, falseJumpsToExit)
}

// ----------------------------------------------------------------------------
// Structural invariants
// ----------------------------------------------------------------------------

var wellFormedPrograms = map[string]string{
	"straight line": `
		class Main { public static void main(String[] args) {
			int x = 1;
			print(x);
		} }
	`,
	"nested control flow": `
		class Main { public static void main(String[] args) {
			int i = 0;
			while (i < 10) {
				if (i % 2 == 0) { print(i); } else { print(0 - i); }
				for (int j = 0; j < i; j = j + 1) {
					if (j == 3) break;
				}
				i = i + 1;
			}
		} }
	`,
	"early returns": `
		class A {
			public int sign(int v) {
				if (v < 0) { return 0 - 1; } else { return 1; }
			}
		}
	`,
	"methods and objects": `
		class Counter {
			int n;
			public void bump() { n = n + 1; }
			public int value() { return n; }
		}
		class Main { public static void main(String[] args) {
			Counter c = new Counter();
			c.bump();
			print(c.value());
		} }
	`,
}

func TestCFGWellFormedness(t *testing.T) {
	for name, input := range wellFormedPrograms {
		t.Run(name, func(t *testing.T) {
			module := compile(t, input)
			for _, cfg := range module.CFGs {
				require.NoError(t, Validate(cfg), "method %s:\n%s",
					cfg.MethodName, FormatListing(EmitBlocks(cfg)))
			}
		})
	}
}

func TestSSATemporariesUnique(t *testing.T) {
	for name, input := range wellFormedPrograms {
		t.Run(name, func(t *testing.T) {
			module := compile(t, input)
			for _, cfg := range module.CFGs {
				defs := make(map[string]int)
				for _, b := range cfg.Blocks() {
					for _, instr := range b.Instrs {
						if dst, ok := tempDestination(instr); ok {
							defs[dst]++
						}
					}
				}
				for temp, n := range defs {
					require.LessOrEqual(t, n, 1, "temp %s defined %d times in %s", temp, n, cfg.MethodName)
				}
			}
		})
	}
}

func TestTextSectionPrecedesCode(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			print("hello");
		} }
	`)
	code := module.Instructions()

	var firstDefine, lastGlobal = -1, -1
	for i, instr := range code {
		if strings.HasPrefix(instr.Op, "define_") && firstDefine < 0 {
			firstDefine = i
		}
		if strings.HasPrefix(instr.Op, "global_") {
			lastGlobal = i
		}
	}
	require.GreaterOrEqual(t, firstDefine, 0)
	require.Less(t, lastGlobal, firstDefine)
}
