package statecharts

import (
	"fmt"
	"os"
	"path/filepath"
)

// Pipeline runs parse, build, verify, synthesize and emit over one source
// buffer. Any error along the way suppresses the artifacts; the report
// holds everything that went wrong.
func Pipeline(file, src string, be Backend, kind OutputKind, cfg Config, rep *Report) []Artifact {
	var decls = Parse(src, rep)
	if rep.HasErrors() {
		return nil
	}
	var m = Build(cfg.Prefix+Basename(file), file, decls, rep)
	if m == nil || rep.HasErrors() {
		return nil
	}
	Verify(m, rep)
	if rep.HasErrors() {
		return nil
	}
	var scenarios = Synthesize(m, cfg.MaxCycleLen, cfg.MaxPathLen)
	return Emit(m, scenarios, be, kind, cfg, rep)
}

// Translate is the whole tool for one input file: read, run the pipeline,
// write the artifacts next to the input, stream diagnostics to stderr.
// It returns the process exit code.
func Translate(input, selector, prefix string) int {
	var data, err = os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var cfg Config
	if cfg, err = LoadConfig(input); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if prefix != "" {
		cfg.Prefix = prefix
	}
	if selector == "" {
		selector = cfg.Backend
	}
	if selector == "" {
		selector = "cpp"
	}
	var be, kind, berr = BackendFor(selector)
	if berr != nil {
		fmt.Fprintln(os.Stderr, berr)
		return 1
	}

	var rep = NewReport(input)
	var artifacts = Pipeline(input, string(data), be, kind, cfg, rep)
	rep.Flush(os.Stderr)
	if rep.HasErrors() {
		return 1
	}
	for _, artifact := range artifacts {
		var path = filepath.Join(filepath.Dir(input), artifact.Name)
		if err := CheckWriteFile(path, artifact.Data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

// Main is the CLI entry point wrapped by cmd/statecharts.
func Main() {
	var args []string
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			SetVerbose(true)
			continue
		}
		args = append(args, arg)
	}
	if len(args) < 1 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: statecharts [-v] <statechart-file> [cpp|hpp|go] [prefix]")
		os.Exit(1)
	}
	var selector, prefix string
	if len(args) > 1 {
		selector = args[1]
	}
	if len(args) > 2 {
		prefix = args[2]
	}
	os.Exit(Translate(args[0], selector, prefix))
}
