// Command codas is the thin external-collaborator CLI driving the
// coda schema parser and target generators. It sits outside the core
// library's scope — the core is schema.Parse/ParseDirectory,
// codec.EncodeEnvelope/DecodeEnvelope, and the gen/* generators this
// binary only dispatches to.
//
// Usage:
//
//	codas generate [--config file.yaml] [--out DIR] [--target NAME...] <file-or-dir>
//
// Exit codes: 0 success, 1 parse failure (a single input file that does
// not parse, or a directory in which no document parses; otherwise
// directory mode skips malformed documents and reports them), 2 IO
// failure (reading a single input file, writing output, or loading the
// config file).
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/codas/codas/gen"
	"github.com/codas/codas/gen/openapigen"
	"github.com/codas/codas/gen/pygen"
	"github.com/codas/codas/gen/rustgen"
	"github.com/codas/codas/gen/sqlgen"
	"github.com/codas/codas/gen/tsgen"
	"github.com/codas/codas/schema"
)

// targetSpec names one supported generator target: its dispatch key
// (as accepted on --target and in the YAML config), the subdirectory
// generated output lands under, the file extension it writes, and the
// Generator function itself.
type targetSpec struct {
	name string
	dir  string
	ext  string
	gen  gen.Generator
}

var targets = []targetSpec{
	{name: "rust", dir: "rust", ext: ".rs", gen: rustgen.Generate},
	{name: "python", dir: "python", ext: ".py", gen: pygen.Generate},
	{name: "typescript", dir: "typescript", ext: ".ts", gen: tsgen.Generate},
	{name: "openapi", dir: "openapi", ext: ".yaml", gen: openapigen.Generate},
	{name: "sql", dir: "sql", ext: ".sql", gen: sqlgen.Generate},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flagSet := pflag.NewFlagSet("codas", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to an optional YAML config file")
	outFlag := flagSet.String("out", "", "root output directory (overrides config)")
	targetFlags := flagSet.StringSlice("target", nil, "target(s) to generate: rust, python, typescript, openapi, sql (repeatable; default all)")
	verbose := flagSet.BoolP("verbose", "v", false, "enable debug logging")
	help := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *help {
		fmt.Fprintln(os.Stderr, "usage: codas generate [flags] <file-or-dir>")
		flagSet.PrintDefaults()
		return 0
	}
	args := flagSet.Args()
	if len(args) < 1 || args[0] != "generate" {
		fmt.Fprintln(os.Stderr, "usage: codas generate [flags] <file-or-dir>")
		return 2
	}
	args = args[1:]
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: codas generate [flags] <file-or-dir>")
		return 2
	}
	input := args[0]

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *configPath).Msg("load config")
		return 2
	}
	if *outFlag != "" {
		cfg.Out = *outFlag
	}
	if cfg.Out == "" {
		cfg.Out = "."
	}
	if len(*targetFlags) > 0 {
		cfg.Targets = *targetFlags
	}

	selected, err := selectTargets(cfg.Targets)
	if err != nil {
		logger.Error().Err(err).Msg("select targets")
		return 2
	}

	info, err := os.Stat(input)
	if err != nil {
		logger.Error().Err(err).Str("path", input).Msg("stat input")
		return 2
	}

	var codas []*schema.Coda
	if info.IsDir() {
		var skipped error
		codas, skipped = schema.ParseDirectory(input)
		if skipped != nil {
			logger.Warn().Err(skipped).Msg("some documents were skipped")
		}
		if len(codas) == 0 {
			logger.Error().Msg("no coda documents parsed")
			return 1
		}
	} else {
		coda, err := schema.ParseFile(input)
		if err != nil {
			var perr *schema.ParseError
			if !errors.As(err, &perr) {
				logger.Error().Err(err).Str("path", input).Msg("read input")
				return 2
			}
			logger.Error().Err(err).Str("path", input).Msg("parse failed")
			return 1
		}
		codas = []*schema.Coda{coda}
	}

	for _, coda := range codas {
		for _, t := range selected {
			if err := writeTarget(cfg.Out, t, coda); err != nil {
				logger.Error().Err(err).Str("coda", coda.Name).Str("target", t.name).Msg("generate failed")
				return 2
			}
			logger.Debug().Str("coda", coda.Name).Str("target", t.name).Msg("generated")
		}
	}
	logger.Info().Int("codas", len(codas)).Int("targets", len(selected)).Msg("done")
	return 0
}

func selectTargets(names []string) ([]targetSpec, error) {
	if len(names) == 0 {
		return targets, nil
	}
	var out []targetSpec
	for _, name := range names {
		found := false
		for _, t := range targets {
			if t.name == name {
				out = append(out, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown target %q", name)
		}
	}
	return out, nil
}

// writeTarget runs one target's generator over coda and writes the
// result to <out>/<target>/<coda name><ext>. The file is named after
// the coda, not after the input file it was parsed from.
func writeTarget(out string, t targetSpec, coda *schema.Coda) error {
	src, err := t.gen(coda)
	if err != nil {
		return err
	}
	dir := filepath.Join(out, t.dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, coda.Name+t.ext)
	return os.WriteFile(path, []byte(src), 0o644)
}
