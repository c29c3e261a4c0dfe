package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func runScript(t *testing.T, files map[string]string, stdin string, args ...string) (string, int, error) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, src := range files {
		if err := afero.WriteFile(fs, name, []byte(src), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	var out bytes.Buffer
	in := New(Options{Stdin: strings.NewReader(stdin), Stdout: &out, FS: fs})
	code, err := in.Run("main.ints", args)
	return out.String(), code, err
}

func runSource(t *testing.T, src string, args ...string) (string, int, error) {
	t.Helper()
	return runScript(t, map[string]string{"main.ints": src}, "", args...)
}

// mainBody wraps statements in a main definition.
func mainBody(body string) string {
	return "fn main(argc: [1], argv: [+]) -> [] {\n" + body + "\n}\n"
}

func TestRunPrint(t *testing.T) {
	out, code, err := runSource(t, mainBody(`print("Hello, ints!");`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if out != "Hello, ints!" {
		t.Errorf("out = %q, want %q", out, "Hello, ints!")
	}
}

func TestMainReceivesArguments(t *testing.T) {
	// argc is the argument count; argv flattens each argument as a
	// length cell followed by its bytes.
	out, _, err := runSource(t, mainBody(`
		print(argc + [48]);
		print(argv[1:3]);
	`), "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "1hi" {
		t.Errorf("out = %q, want %q", out, "1hi")
	}
}

func TestMainReturnDiscarded(t *testing.T) {
	out, code, err := runSource(t, mainBody(`return [9];`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if out != "" {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestNoMainDefined(t *testing.T) {
	out, code, err := runSource(t, `fn helper() -> [] { print("x"); }`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 || out != "" {
		t.Errorf("got code %d out %q, want 0 and empty", code, out)
	}
}

func TestRootBindingsNeverExecute(t *testing.T) {
	out, code, err := runSource(t, `
let greeting: [+] = "never";
print(greeting);
fn main(argc: [1], argv: [+]) -> [] {
	print("ok");
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if out != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}

	// A root binding is parsed only, so main cannot see it.
	_, code, err = runSource(t, `
let x: [1] = [65];
fn main(argc: [1], argv: [+]) -> [] {
	print(x);
}
`)
	if errString(err) != "Undefined variable: x" {
		t.Errorf("error = %q, want undefined variable", errString(err))
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}

func TestExitBuiltin(t *testing.T) {
	out, code, err := runSource(t, mainBody(`
		exit([7]);
		print("after");
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 7 {
		t.Errorf("code = %d, want 7", code)
	}
	if out != "" {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestWhileLoop(t *testing.T) {
	out, _, err := runSource(t, mainBody(`
		let i: [1] = [51];
		while [48] < i {
			print(i);
			i = i - [1];
		}
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "321" {
		t.Errorf("out = %q, want %q", out, "321")
	}
}

func TestForLoop(t *testing.T) {
	out, _, err := runSource(t, mainBody(`
		for d : range([3]) {
			print(d + [48]);
		}
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "012" {
		t.Errorf("out = %q, want %q", out, "012")
	}
}

func TestIfElseChain(t *testing.T) {
	out, _, err := runSource(t, `
fn label(n: [1]) -> [+] {
	if n == [0] {
		return "zero";
	} else if n == [1] {
		return "one";
	} else {
		return "many";
	}
}
fn main(argc: [1], argv: [+]) -> [] {
	print(label([0]));
	print(label([1]));
	print(label([5]));
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "zeroonemany" {
		t.Errorf("out = %q, want %q", out, "zeroonemany")
	}
}

func TestDeclarationCondition(t *testing.T) {
	out, _, err := runSource(t, `
fn describe(a: [+]) -> [+] {
	if let pair: [2] = a {
		return "pair";
	} else if let rest: [1+] = a {
		return "some";
	} else {
		return "none";
	}
}
fn main(argc: [1], argv: [+]) -> [] {
	print(describe([1, 2]));
	print(describe([1, 2, 3]));
	print(describe([]));
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "pairsomenone" {
		t.Errorf("out = %q, want %q", out, "pairsomenone")
	}
}

func TestWhileDeclarationCondition(t *testing.T) {
	// The while scope is shared across iterations and the condition
	// rebinds its name each time around.
	out, _, err := runSource(t, mainBody(`
		let x: [+] = "hi";
		while let w: [2] = x {
			print(w);
			x = [];
		}
		print("!");
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hi!" {
		t.Errorf("out = %q, want %q", out, "hi!")
	}
}

func TestAssignmentRebindsWholesale(t *testing.T) {
	// Assignment replaces the stored value outright; the declared
	// descriptor constrains only the declaration itself.
	out, _, err := runSource(t, mainBody(`
		let x: [3] = [1, 2, 3];
		x = [53];
		print(x.size() + [48]);
		print(x);
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "15" {
		t.Errorf("out = %q, want %q", out, "15")
	}
}

func TestRangeSlicing(t *testing.T) {
	out, _, err := runSource(t, mainBody(`
		let a: [+] = "hello";
		print(a[1:3]);
		print(a[:2]);
		print(a[3:]);
		print(a[1]);
		print(a[:]);
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "elheloehello" {
		t.Errorf("out = %q, want %q", out, "elheloehello")
	}
}

func TestMethodChain(t *testing.T) {
	out, _, err := runSource(t, mainBody(`
		let a: [+] = [104, 105];
		print(a.append([33]).size() + [48]);
	`))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "3" {
		t.Errorf("out = %q, want %q", out, "3")
	}
}

func TestFunctionWithoutReturn(t *testing.T) {
	out, _, err := runSource(t, `
fn noop() -> [] {
}
fn main(argc: [1], argv: [+]) -> [] {
	print(noop().size() + [48]);
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "0" {
		t.Errorf("out = %q, want %q", out, "0")
	}
}

func TestCalleeSeesCallerScope(t *testing.T) {
	// A call scope chains to the calling scope, so a function body can
	// read the caller's locals.
	out, _, err := runSource(t, `
fn show() -> [] {
	print(message);
}
fn main(argc: [1], argv: [+]) -> [] {
	let message: [+] = "dyn";
	show();
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "dyn" {
		t.Errorf("out = %q, want %q", out, "dyn")
	}
}

func TestUserFunctionShadowsBuiltin(t *testing.T) {
	out, code, err := runSource(t, `
fn print(x: [+]) -> [] {
}
fn main(argc: [1], argv: [+]) -> [] {
	print("invisible");
}
`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 || out != "" {
		t.Errorf("got code %d out %q, want 0 and empty", code, out)
	}
}

func TestUseLoadsFunctions(t *testing.T) {
	out, _, err := runScript(t, map[string]string{
		"main.ints": `
use "lib.ints"
fn main(argc: [1], argv: [+]) -> [] {
	print(greet());
}
`,
		"lib.ints": `
fn greet() -> [+] {
	return "hey";
}
`,
	}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hey" {
		t.Errorf("out = %q, want %q", out, "hey")
	}
}

func TestUseCycleTerminates(t *testing.T) {
	out, _, err := runScript(t, map[string]string{
		"main.ints": `
use "a.ints"
fn main(argc: [1], argv: [+]) -> [] {
	print(f());
}
`,
		"a.ints": `
use "b.ints"
fn f() -> [+] {
	return g();
}
`,
		"b.ints": `
use "a.ints"
fn g() -> [+] {
	return "deep";
}
`,
	}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "deep" {
		t.Errorf("out = %q, want %q", out, "deep")
	}
}

func TestUseTargetIsEvaluated(t *testing.T) {
	// A use target is an expression evaluated against what has loaded
	// so far, so an earlier function can name the file.
	out, _, err := runScript(t, map[string]string{
		"main.ints": `
fn libName() -> [+] {
	return "lib.ints";
}
use libName()
fn main(argc: [1], argv: [+]) -> [] {
	print(greet());
}
`,
		"lib.ints": `
fn greet() -> [+] {
	return "hey";
}
`,
	}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hey" {
		t.Errorf("out = %q, want %q", out, "hey")
	}
}

func TestGetcharReadsStdin(t *testing.T) {
	out, _, err := runScript(t, map[string]string{"main.ints": mainBody(`
		print(getchar());
		if getchar() == [-1] {
			print("$");
		}
	`)}, "A")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "A$" {
		t.Errorf("out = %q, want %q", out, "A$")
	}
}

func TestReadBuiltin(t *testing.T) {
	out, _, err := runScript(t, map[string]string{
		"main.ints": mainBody(`print(read("data.txt"));`),
		"data.txt":  "xyz",
	}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "xyz" {
		t.Errorf("out = %q, want %q", out, "xyz")
	}
}

func TestMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := New(Options{Stdout: &bytes.Buffer{}, FS: fs})
	code, err := in.Run("absent.ints", nil)
	if errString(err) != "Failed to open file: absent.ints" {
		t.Errorf("error = %q", errString(err))
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}

func TestParseErrorSurfaces(t *testing.T) {
	_, code, err := runSource(t, "fn main(argc: [1], argv: [+]) -> [] {")
	if errString(err) != "Unexpected end of file in Body. Expected }" {
		t.Errorf("error = %q", errString(err))
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "undefined function",
			src:     mainBody(`nope();`),
			wantErr: "Undefined function 'nope'",
		},
		{
			name:    "variable called as function",
			src:     mainBody(`let f: [1] = [1]; f();`),
			wantErr: "f must be defined as a function.",
		},
		{
			name: "function used as array",
			src: `
fn g() -> [] {
}
fn main(argc: [1], argv: [+]) -> [] {
	print(g);
}
`,
			wantErr: "Cannot use g as an array, as it is defined as a function",
		},
		{
			name: "arity mismatch",
			src: `
fn two(a: [1], b: [1]) -> [] {
}
fn main(argc: [1], argv: [+]) -> [] {
	two([1]);
}
`,
			wantErr: "Function two expected 2 argument(s) but received 1",
		},
		{
			name: "parameter binding mismatch",
			src: `
fn f(a: [2]) -> [] {
}
fn main(argc: [1], argv: [+]) -> [] {
	f([1]);
}
`,
			wantErr: "Cannot set value. Destination length is not equal to the sources length",
		},
		{
			name:    "undefined variable",
			src:     mainBody(`print(y);`),
			wantErr: "Undefined variable: y",
		},
		{
			name:    "assignment to undeclared name",
			src:     mainBody(`y = [1];`),
			wantErr: "y has not been defined",
		},
		{
			name:    "print arity",
			src:     mainBody(`print("a", "b");`),
			wantErr: "Function print expected 1 argument but received 2",
		},
		{
			name:    "read arity",
			src:     mainBody(`read();`),
			wantErr: "Function read expected 1 argument but received 0",
		},
		{
			name:    "getchar arity",
			src:     mainBody(`getchar([1]);`),
			wantErr: "Function getchar expected 0 argument but received 1",
		},
		{
			name:    "clear arity",
			src:     mainBody(`clear([1]);`),
			wantErr: "Function clear expected 0 argument but received 1",
		},
		{
			name:    "range arity",
			src:     mainBody(`range([1], [2]);`),
			wantErr: "Function range expected 1 argument but received 2",
		},
		{
			name:    "range size",
			src:     mainBody(`range([1, 2]);`),
			wantErr: "Function range expected 1 argument with size [1] but received [2]",
		},
		{
			name:    "range negative",
			src:     mainBody(`range([-5]);`),
			wantErr: "Function range expected 1 non-negative argument with size [1] but received the value [ -5 ]",
		},
		{
			name:    "exit size",
			src:     mainBody(`exit([]);`),
			wantErr: "Function exit expected 1 argument with size [1] but received [0]",
		},
		{
			name:    "range bounds inverted",
			src:     mainBody(`let a: [+] = [1, 2, 3]; print(a[2:1]);`),
			wantErr: "Array Range upper bound must be greater than or equal to the lower bound",
		},
		{
			name:    "range bounds exceed length",
			src:     mainBody(`let a: [+] = [1, 2, 3]; print(a[1:9]);`),
			wantErr: "Array range bounds must be smaller than the length of the array",
		},
		{
			name:    "range bound not one cell",
			src:     mainBody(`let a: [+] = [1, 2, 3]; let b: [+] = [1, 2]; print(a[b:]);`),
			wantErr: "Array Bounds value must be an integer or evaluate to an array with 1 positive value",
		},
		{
			name:    "unknown method",
			src:     mainBody(`let a: [+] = [1]; print(a.reverse());`),
			wantErr: "Unknown method reverse",
		},
		{
			name:    "division by zero",
			src:     mainBody(`print([1] / [0]);`),
			wantErr: "Cannot divide by zero",
		},
		{
			name:    "missing header",
			src:     `use "nope.ints"` + "\n" + mainBody(``),
			wantErr: "Failed to open file: nope.ints",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code, err := runSource(t, tt.src)
			if errString(err) != tt.wantErr {
				t.Fatalf("error = %q, want %q", errString(err), tt.wantErr)
			}
			if code != 1 {
				t.Errorf("code = %d, want 1", code)
			}
		})
	}
}
