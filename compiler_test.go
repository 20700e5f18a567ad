package main

import "testing"

func compileToImage(t *testing.T, src string) (*Emitter, []byte) {
	t.Helper()
	syms, ir, stackSize, _ := ParseProgram(src)
	e := NewEmitter(syms, ir)
	e.requestedStackSize = stackSize
	if err := e.CompileIR(); err != nil {
		t.Fatalf("CompileIR() error = %v", err)
	}
	image := PackageExecutable(e)
	if string(image[0:2]) != "MZ" {
		t.Fatalf("not an MZ image")
	}
	if !e.backpatch.AllResolved() {
		t.Fatalf("expected every backpatch resolved after packaging")
	}
	return e, image
}

func TestCompile_FunctionCallAndReturnValue(t *testing.T) {
	src := `func double(uint16 n) uint16 {
  return n + n;
}

func main() {
  uint16 r;
  r = double(21);
  return;
}
`
	compileToImage(t, src)
}

func TestCompile_GlobalStaticRoundTrip(t *testing.T) {
	src := `uint16 counter;

func main() {
  counter = 5;
  counter = counter + 1;
  return;
}
`
	compileToImage(t, src)
}

func TestCompile_ManyLocalsForceRegisterSpill(t *testing.T) {
	src := `func main() {
  uint16 a;
  uint16 b;
  uint16 c;
  uint16 d;
  uint16 e;
  a = 1;
  b = 2;
  c = 3;
  d = 4;
  e = 5;
  e = a + b;
  e = e + c;
  e = e + d;
  return;
}
`
	compileToImage(t, src)
}

func TestCompile_DivisionSpillsDxAndAx(t *testing.T) {
	src := `func main() {
  uint16 a;
  uint16 b;
  uint16 q;
  uint16 r;
  a = 17;
  b = 5;
  q = a / b;
  r = a % b;
  return;
}
`
	compileToImage(t, src)
}

func TestCompile_StringDictionaryLookup(t *testing.T) {
	src := `func main() {
  string cmd;
  cmd = GetCommandLine();
  bool isFoo;
  isFoo = StringsEqual(cmd, "foo");
  if (isFoo == 1) {
    PrintString("first");
    PrintNewLine();
  } else {
    bool isBar;
    isBar = StringsEqual(cmd, "bar");
    if (isBar == 1) {
      PrintString("second");
      PrintNewLine();
    } else {
      PrintString("third");
      PrintNewLine();
    }
  }
  return;
}
`
	e, image := compileToImage(t, src)

	for _, name := range []SharedFunctionName{SharedGetCommandLine, SharedStringsEqual, SharedPrintString, SharedPrintNewLine} {
		sym, ok := e.syms.TryResolveFunction(string(name))
		if !ok {
			t.Fatalf("%s was never declared", name)
		}
		if sym.RefCount == 0 {
			t.Fatalf("%s has RefCount 0, want at least 1 reference", name)
		}
	}
	_ = image
}

func TestCompile_ArmstrongStyleConditional(t *testing.T) {
	src := `func main() {
  uint32 n;
  uint32 sum;
  uint32 digit;
  n = 153;
  sum = 0;
  digit = n % 10;
  sum = sum + digit;
  if (sum == n) {
    PrintString("armstrong");
  } else {
    PrintString("not armstrong");
  }
  PrintNewLine();
  return;
}
`
	compileToImage(t, src)
}
