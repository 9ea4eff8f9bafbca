package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/rfscope"
	"github.com/jward/rfscope/internal/libspec"
	"github.com/jward/rfscope/internal/workspace"
)

// --- keywords ---

var flagLimit int

var keywordsCmd = &cobra.Command{
	Use:   "keywords <query>",
	Short: "Fuzzy-search keyword names in the spec index",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeywords,
}

func init() {
	keywordsCmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum number of matches (0 for all)")
}

func runKeywords(cmd *cobra.Command, args []string) error {
	ix, err := openIndex()
	if err != nil {
		return outputError("keywords", err)
	}
	defer ix.Close()

	matches, err := ix.FindKeywords(args[0], flagLimit)
	if err != nil {
		return outputError("keywords", err)
	}
	return outputResult(CLIResult{Command: "keywords", Results: matches})
}

// --- spec ---

var flagCached bool

var specCmd = &cobra.Command{
	Use:   "spec <file>",
	Short: "Print a keyword spec file",
	Long:  "Parses a *.libspec or *.xml keyword spec file and prints its keywords. With --cached the library is read from the spec index instead.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpec,
}

func init() {
	specCmd.Flags().BoolVar(&flagCached, "cached", false, "read the library from the spec index")
}

func runSpec(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("spec", err)
	}

	var lib *libspec.LibraryDoc
	if flagCached {
		ix, err := openIndex()
		if err != nil {
			return outputError("spec", err)
		}
		defer ix.Close()
		lib, err = ix.Library(path)
		if err != nil {
			return outputError("spec", err)
		}
	} else {
		lib, err = libspec.Build(cmd.Context(), path)
		if err != nil {
			return outputError("spec", err)
		}
	}
	return outputResult(CLIResult{Command: "spec", Results: libraryToCLI(lib)})
}

// --- vars ---

var flagCurrentOnly bool

var varsCmd = &cobra.Command{
	Use:   "vars <file> <line> <col>",
	Short: "List the variables visible at a position",
	Long:  "Lists every variable visible at a position of a robot file, in precedence order, together with imports that could not be resolved. Line and column are 0-based.",
	Args:  cobra.ExactArgs(3),
	RunE:  runVars,
}

func init() {
	varsCmd.Flags().BoolVar(&flagCurrentOnly, "current-only", false, "only report variables defined in the file itself")
}

func runVars(cmd *cobra.Command, args []string) error {
	cc, err := scopeContext(cmd.Context(), args)
	if err != nil {
		return outputError("vars", err)
	}

	reach := rfscope.ReachAll
	if flagCurrentOnly {
		reach = rfscope.ReachCurrentDocument
	}
	res := rfscope.NewResults(nil)
	if err := rfscope.NewResolver().Collect(cmd.Context(), cc, res, reach); err != nil {
		return outputError("vars", err)
	}
	return outputResult(CLIResult{Command: "vars", Results: CLIScope{
		Variables:  variablesToCLI(res.Variables),
		Unresolved: res.Unresolved,
	}})
}

// --- complete ---

var flagFuzzy bool

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <col>",
	Short: "Complete the variable at a position",
	Long:  "Lists the visible variables matching the partially typed variable at a position. Line and column are 0-based.",
	Args:  cobra.ExactArgs(3),
	RunE:  runComplete,
}

func init() {
	completeCmd.Flags().BoolVar(&flagFuzzy, "fuzzy", false, "match names fuzzily instead of by prefix")
}

func runComplete(cmd *cobra.Command, args []string) error {
	cc, err := scopeContext(cmd.Context(), args)
	if err != nil {
		return outputError("complete", err)
	}

	var opts []rfscope.Option
	if flagFuzzy {
		opts = append(opts, rfscope.WithMatcher(rfscope.FuzzyMatcher))
	}
	vars, err := rfscope.NewResolver(opts...).Complete(cmd.Context(), cc)
	if err != nil {
		return outputError("complete", err)
	}
	return outputResult(CLIResult{Command: "complete", Results: variablesToCLI(vars)})
}

// --- Helpers ---

// openIndex opens the spec index from the --db flag path (or default).
func openIndex() (*rfscope.Index, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'rfscope index' first)", dbPath)
	}
	return rfscope.OpenIndex(dbPath)
}

// scopeContext builds the resolution input for <file> <line> <col>: the
// document, its import graph, the configured variables and the suite init
// files up to the repo root.
func scopeContext(ctx context.Context, args []string) (*rfscope.CompletionContext, error) {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return nil, err
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return nil, err
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return nil, err
	}

	cache := workspace.NewCache()
	doc, err := cache.Get(path)
	if err != nil {
		return nil, err
	}
	g, err := workspace.BuildGraph(ctx, cache, doc, cfg.Variables)
	if err != nil {
		return nil, err
	}
	root := findRepoRoot(filepath.Dir(doc.Path()))
	return &rfscope.CompletionContext{
		Doc:       doc,
		Position:  rfscope.Position{Line: line, Character: col},
		Graph:     rfscope.WorkspaceGraph(g),
		Variables: cfg.Variables,
		InitDocs:  rfscope.Documents(cache.SuiteInits(doc, root)),
	}, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func variablesToCLI(vars []rfscope.VariableFound) []CLIVariable {
	out := make([]CLIVariable, len(vars))
	for i, v := range vars {
		out[i] = CLIVariable{
			Name:       v.Name(),
			Value:      v.Value(),
			Provenance: string(v.Provenance()),
			Source:     v.Source(),
			Range:      v.Range(),
		}
	}
	return out
}

func libraryToCLI(lib *libspec.LibraryDoc) CLILibrary {
	kws := func(in []*libspec.KeywordDoc) []CLIKeyword {
		out := make([]CLIKeyword, 0, len(in))
		for _, kd := range in {
			args := make([]string, 0, len(kd.Args()))
			for _, a := range kd.Args() {
				args = append(args, a.String())
			}
			out = append(out, CLIKeyword{
				Name:       kd.Name,
				Args:       args,
				Tags:       kd.Tags,
				Source:     kd.Source(),
				Lineno:     kd.Lineno,
				Deprecated: kd.Deprecated(),
			})
		}
		return out
	}
	return CLILibrary{
		Name:        lib.Name,
		Path:        lib.Filename,
		Version:     lib.Version,
		Type:        lib.Type,
		Scope:       string(lib.Scope),
		DocFormat:   string(lib.DocFormat),
		SpecVersion: lib.SpecVersion,
		Source:      lib.Source(),
		Inits:       kws(lib.Inits),
		Keywords:    kws(lib.Keywords()),
	}
}
