package main

import "github.com/jward/rfscope"

// CLIResult is the top-level JSON envelope for all query commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIVariable is a JSON-friendly variable representation. Lines and
// columns are 0-based.
type CLIVariable struct {
	Name       string        `json:"name"`
	Value      string        `json:"value"`
	Provenance string        `json:"provenance"`
	Source     string        `json:"source,omitempty"`
	Range      rfscope.Range `json:"range"`
}

// CLIScope is the result of the vars command.
type CLIScope struct {
	Variables  []CLIVariable              `json:"variables"`
	Unresolved []rfscope.UnresolvedImport `json:"unresolved,omitempty"`
}

// CLILibrary is a JSON-friendly keyword spec.
type CLILibrary struct {
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	Version     string       `json:"version,omitempty"`
	Type        string       `json:"type"`
	Scope       string       `json:"scope"`
	DocFormat   string       `json:"doc_format"`
	SpecVersion int          `json:"spec_version"`
	Source      string       `json:"source,omitempty"`
	Inits       []CLIKeyword `json:"inits,omitempty"`
	Keywords    []CLIKeyword `json:"keywords"`
}

// CLIKeyword is a JSON-friendly keyword.
type CLIKeyword struct {
	Name       string   `json:"name"`
	Args       []string `json:"args"`
	Tags       []string `json:"tags,omitempty"`
	Source     string   `json:"source,omitempty"`
	Lineno     int      `json:"lineno"`
	Deprecated bool     `json:"deprecated,omitempty"`
}
