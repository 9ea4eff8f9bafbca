package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/rfscope"
)

// formatVariablesText formats variables as aligned columns. Locations are
// printed 1-based, the way editors show them.
func formatVariablesText(w io.Writer, vars []CLIVariable) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tPROVENANCE\tLOCATION")
	for _, v := range vars {
		loc := ""
		if v.Source != "" {
			loc = fmt.Sprintf("%s:%d:%d", v.Source, v.Range.Start.Line+1, v.Range.Start.Character+1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Value, v.Provenance, loc)
	}
	tw.Flush()
}

// formatUnresolvedText prints one "file:line:col: message" line per
// unresolved import; multi-line messages are indented.
func formatUnresolvedText(w io.Writer, unresolved []rfscope.UnresolvedImport) {
	for _, u := range unresolved {
		msg := strings.ReplaceAll(u.Message, "\n", "\n    ")
		fmt.Fprintf(w, "%s:%d:%d: %s\n", u.Source, u.Range.Start.Line+1, u.Range.Start.Character+1, msg)
	}
}

// formatKeywordMatchesText formats fuzzy keyword matches as aligned columns.
func formatKeywordMatchesText(w io.Writer, matches []rfscope.KeywordMatch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEYWORD\tLIBRARY\tDISTANCE\tPATH")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Name, m.Library, m.Distance, m.Path)
	}
	tw.Flush()
}

// formatLibraryText formats a keyword spec as readable text.
func formatLibraryText(w io.Writer, lib CLILibrary) {
	fmt.Fprintf(w, "Library: %s\n", lib.Name)
	if lib.Version != "" {
		fmt.Fprintf(w, "Version: %s\n", lib.Version)
	}
	fmt.Fprintf(w, "Scope: %s\n", lib.Scope)
	fmt.Fprintf(w, "Format: %s\n", lib.DocFormat)
	if lib.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", lib.Source)
	}
	fmt.Fprintln(w)

	section := func(title string, kws []CLIKeyword) {
		if len(kws) == 0 {
			return
		}
		fmt.Fprintf(w, "%s:\n", title)
		for _, kw := range kws {
			line := "  " + kw.Name
			if len(kw.Args) > 0 {
				line += "    " + strings.Join(kw.Args, "    ")
			}
			if kw.Deprecated {
				line += "  (deprecated)"
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
	section("Init", lib.Inits)
	section("Keywords", lib.Keywords)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIVariable:
		formatVariablesText(w, v)
	case CLIScope:
		formatVariablesText(w, v.Variables)
		if len(v.Unresolved) > 0 {
			fmt.Fprintln(w)
			formatUnresolvedText(w, v.Unresolved)
		}
	case []rfscope.KeywordMatch:
		formatKeywordMatchesText(w, v)
	case CLILibrary:
		formatLibraryText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
