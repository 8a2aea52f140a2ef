package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-mjc/internal/dataflow"
	"github.com/cwbudde/go-mjc/internal/ir"
	"github.com/cwbudde/go-mjc/internal/lexer"
	"github.com/cwbudde/go-mjc/internal/parser"
	"github.com/cwbudde/go-mjc/internal/semantic"
)

// compile runs the front end and IR generation on a source program.
func compile(t *testing.T, input string) *ir.Module {
	t.Helper()
	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	require.Empty(t, p.Errors(), "parser errors")

	registry, err := semantic.NewSymbolTableBuilder().Build(program)
	require.NoError(t, err)
	require.NoError(t, semantic.NewAnalyzer(registry).Analyze(program))

	return ir.NewGenerator(registry).Generate(program)
}

// run executes a program and returns its output.
func run(t *testing.T, input string) (string, error) {
	t.Helper()
	module := compile(t, input)
	var out bytes.Buffer
	err := New(&out).Run(module.Instructions())
	return out.String(), err
}

func expectOutput(t *testing.T, input, expected string) {
	t.Helper()
	got, err := run(t, input)
	require.NoError(t, err)
	require.Equal(t, expected, got)
}

func TestHelloWorld(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			print("hi");
		} }
	`, "hi\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int x = 2 + 3 * 4;
			print(x);
		} }
	`, "14\n")
}

func TestInheritedFieldDefault(t *testing.T) {
	expectOutput(t, `
		class A { int n = 7; }
		class B extends A { }
		class Main { public static void main(String[] args) {
			B b = new B();
			print(b.n);
		} }
	`, "7\n")
}

func TestMethodCallAndReturn(t *testing.T) {
	expectOutput(t, `
		class A { public int twice(int v) { return v + v; } }
		class Main { public static void main(String[] args) {
			A a = new A();
			print(a.twice(21));
		} }
	`, "42\n")
}

func TestFieldUpdateThroughMethod(t *testing.T) {
	expectOutput(t, `
		class Counter {
			int n;
			public void bump() { n = n + 1; }
			public int value() { return n; }
		}
		class Main { public static void main(String[] args) {
			Counter c = new Counter();
			c.bump();
			c.bump();
			c.bump();
			print(c.value());
		} }
	`, "3\n")
}

func TestInheritedMethodDynamicReceiver(t *testing.T) {
	expectOutput(t, `
		class A { public int id() { return 1; } }
		class B extends A { }
		class Main { public static void main(String[] args) {
			B b = new B();
			print(b.id());
		} }
	`, "1\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int i = 0;
			int sum = 0;
			while (i < 5) {
				sum = sum + i;
				i = i + 1;
			}
			print(sum);
		} }
	`, "10\n")
}

func TestForLoopWithBreak(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			for (int i = 0; i < 10; i = i + 1) {
				if (i == 3) break;
				print(i);
			}
		} }
	`, "0\n1\n2\n")
}

func TestNestedLoops(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int count = 0;
			for (int i = 0; i < 3; i = i + 1) {
				for (int j = 0; j < 3; j = j + 1) {
					if (j > i) break;
					count = count + 1;
				}
			}
			print(count);
		} }
	`, "6\n")
}

func TestArrays(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int[] a = new int[3];
			a[0] = 10;
			a[1] = 20;
			a[2] = a[0] + a[1];
			print(a[2], a.length);
		} }
	`, "30\n3\n")
}

func TestInitListAndCharArray(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int[] a = {5, 6, 7};
			char[] cs = "ab";
			print(a[1], cs[0], cs.length);
		} }
	`, "6\na\n2\n")
}

func TestUnaryAndBoolean(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int x = -3;
			boolean b = !(1 < 2) || true && 2 == 2;
			if (b) print(x);
		} }
	`, "-3\n")
}

func TestRecursion(t *testing.T) {
	expectOutput(t, `
		class Math {
			public int fact(int n) {
				if (n < 2) { return 1; }
				return n * this.fact(n - 1);
			}
		}
		class Main { public static void main(String[] args) {
			Math m = new Math();
			print(m.fact(6));
		} }
	`, "720\n")
}

func TestAssertPass(t *testing.T) {
	expectOutput(t, `
		class Main { public static void main(String[] args) {
			int y = 3;
			assert y == 3;
			print("after");
		} }
	`, "after\n")
}

func TestAssertFailure(t *testing.T) {
	got, err := run(t, `
		class Main { public static void main(String[] args) {
			int y = 3;
			assert y == 4;
			print("after");
		} }
	`)
	require.Error(t, err)
	require.IsType(t, &AssertionError{}, err)
	require.True(t, strings.HasPrefix(got, "assertion_fail on "), "got %q", got)
	require.NotContains(t, got, "after")
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, `
		class Main { public static void main(String[] args) {
			int x = 0;
			print(1 / x);
		} }
	`)
	require.Error(t, err)
	require.IsType(t, &RuntimeError{}, err)
}

func TestIndexOutOfBounds(t *testing.T) {
	_, err := run(t, `
		class Main { public static void main(String[] args) {
			int[] a = new int[2];
			print(a[5]);
		} }
	`)
	require.Error(t, err)
	require.IsType(t, &RuntimeError{}, err)
}

func TestStackOverflow(t *testing.T) {
	_, err := run(t, `
		class Loop {
			public int spin(int n) { return this.spin(n + 1); }
		}
		class Main { public static void main(String[] args) {
			Loop l = new Loop();
			print(l.spin(0));
		} }
	`)
	require.Error(t, err)
	require.IsType(t, &RuntimeError{}, err)
}

// ----------------------------------------------------------------------------
// Optimization soundness
// ----------------------------------------------------------------------------

// For every well-formed program, the optimized MJIR must produce the
// same observable output as the unoptimized MJIR, in no more
// instructions.
func TestOptimizationSoundness(t *testing.T) {
	programs := map[string]string{
		"arithmetic": `
			class Main { public static void main(String[] args) {
				int x = 2;
				int y = 3;
				int z = x + y;
				print(z);
			} }
		`,
		"loop": `
			class Main { public static void main(String[] args) {
				int i = 0;
				int sum = 0;
				while (i < 10) {
					sum = sum + i;
					i = i + 1;
				}
				print(sum);
			} }
		`,
		"objects": `
			class Acc {
				int total;
				public void add(int v) { total = total + v; }
				public int get() { return total; }
			}
			class Main { public static void main(String[] args) {
				Acc acc = new Acc();
				acc.add(4);
				acc.add(5);
				print(acc.get());
			} }
		`,
		"strings and arrays": `
			class Main { public static void main(String[] args) {
				int[] a = {1, 2, 3};
				print("start");
				print(a[0] + a[1] + a[2]);
			} }
		`,
	}

	for name, input := range programs {
		t.Run(name, func(t *testing.T) {
			plain := compile(t, input)
			var before bytes.Buffer
			require.NoError(t, New(&before).Run(plain.Instructions()))

			optimized := dataflow.Optimize(compile(t, input))
			var after bytes.Buffer
			require.NoError(t, New(&after).Run(optimized.Code))

			require.Equal(t, before.String(), after.String())
			require.LessOrEqual(t, optimized.After, optimized.Before)
		})
	}
}

// Constant propagation on the seed scenario folds the add and removes
// the load, so the program shrinks.
func TestConstantPropagationSpeedup(t *testing.T) {
	input := `
		class Main { public static void main(String[] args) {
			int x = 2;
			int y = 3;
			int z = x + y;
			print(z);
		} }
	`
	result := dataflow.Optimize(compile(t, input))
	require.Greater(t, result.Speedup(), 1.0)

	var out bytes.Buffer
	require.NoError(t, New(&out).Run(result.Code))
	require.Equal(t, "5\n", out.String())
}
