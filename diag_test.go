package main

import "testing"

func TestCompileError_ErrorFormatting(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected the raised syntax error to be recovered")
		}
		ce, ok := rec.(*CompileError)
		if !ok {
			t.Fatalf("expected *CompileError, got %#v", rec)
		}
		want := `[3:7] Syntax: unexpected token "}"`
		if ce.Error() != want {
			t.Fatalf("Error() = %q, want %q", ce.Error(), want)
		}
	}()
	panic(syntaxErrorAt(3, 7, "unexpected token %q", "}"))
}

func TestCompileError_NoLocationOmitsPrefix(t *testing.T) {
	err := &CompileError{Kind: KindInternalError, Msg: "broken invariant"}
	want := "Internal: broken invariant"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorKind_String(t *testing.T) {
	cases := map[ErrorKind]string{
		KindSyntaxError:      "Syntax",
		KindDeclarationError: "Declaration",
		KindStatementError:   "Statement",
		KindInternalError:    "Internal",
		KindEncodingError:    "Encoding",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", k, got, want)
		}
	}
}
