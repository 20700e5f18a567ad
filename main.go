// Completion: 100% - compiler driver (C9) complete
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/xyproto/env/v2"
)

const versionString = "compiler 1.0.0"

// envStackOverride lets a CI harness or wrapper script pin the MZ header's
// initial stack size without touching the source file, the same way the
// teacher's tools reach for xyproto/env instead of raw os.Getenv so a
// missing/malformed variable falls back to a typed default rather than a
// parse error.
const envStackOverride = "MZCC_STACK_SIZE"

// main implements the CLI described in spec §6:
//   compiler <output.exe>                (IR source read from stdin)
//   compiler <input.src> <output.exe>
// Exit codes: 0 on success, non-zero on any compile error. VerboseMode is
// toggled by -v or by the MZCC_VERBOSE environment variable, matching the
// teacher's global verbose-trace convention (diag.go's tracef).
func main() {
	VerboseMode = env.Bool("MZCC_VERBOSE")

	args := os.Args[1:]

	var rest []string
	for _, a := range args {
		switch a {
		case "-v", "--verbose":
			VerboseMode = true
		case "--version", "-V":
			fmt.Println(versionString)
			os.Exit(0)
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			rest = append(rest, a)
		}
	}

	var inputPath, outputPath string
	switch len(rest) {
	case 1:
		outputPath = rest[0]
	case 2:
		inputPath, outputPath = rest[0], rest[1]
	default:
		printUsage()
		os.Exit(2)
	}

	src, err := readSource(inputPath)
	if err != nil {
		log.Fatalf("compiler: %v", err)
	}

	if err := compileToFile(src, outputPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readSource(inputPath string) (string, error) {
	if inputPath == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", inputPath, err)
	}
	return string(data), nil
}

// compileToFile runs the full pipeline (parse -> emit -> package) and writes
// the resulting MZ executable, closing and removing a partially-written file
// on any failure (spec §7's "driver closes partially-written files").
func compileToFile(src, outputPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	syms, ir, stackSize, stackAtLeast := ParseProgram(src)

	// A "#stack" directive (either form) in source always wins; absent that, an
	// operator can still pin the header's stack size per invocation via
	// MZCC_STACK_SIZE without editing the source.
	if stackSize == 0 {
		if envStack := env.Int(envStackOverride, 0); envStack > 0 {
			stackSize = uint16(envStack)
		}
	}

	e := NewEmitter(syms, ir)
	e.requestedStackSize = stackSize
	e.stackSizeIsAtLeast = stackAtLeast
	if err := e.CompileIR(); err != nil {
		return err
	}

	image := PackageExecutable(e)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	if _, err := f.Write(image); err != nil {
		f.Close()
		os.Remove(outputPath)
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return f.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s

USAGE:
    compiler <output.exe>              read IR source from standard input
    compiler <input.src> <output.exe>

FLAGS:
    -v, --verbose    trace each emission step to standard error
    -V, --version    print version and exit
    -h, --help       show this message

DIRECTIVES:
    #stack N         set the initial stack size, in bytes
    #stack ^N        same, but "at least N" if set more than once

ENVIRONMENT:
    MZCC_VERBOSE     same as -v
    MZCC_STACK_SIZE  default stack size when source has no #stack directive
`, versionString)
}
