// Package varfile reads the variables declared by external variable files
// without executing them: top-level assignments of Python modules and the
// top-level mapping of YAML (and JSON) documents.
package varfile

import (
	"path/filepath"
	"strings"
)

// Kind is the format of a variable file.
type Kind string

const (
	KindPython Kind = "python"
	KindYAML   Kind = "yaml"
)

// extToKind maps file extensions to formats. JSON is read as YAML, of which
// it is a subset.
var extToKind = map[string]Kind{
	".py":   KindPython,
	".yaml": KindYAML,
	".yml":  KindYAML,
	".json": KindYAML,
}

// KindOf returns the format of path based on its extension. Returns
// ("", false) if the extension is not recognized.
func KindOf(path string) (Kind, bool) {
	k, ok := extToKind[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Entry is one variable. Line and Col are 0-based; EndCol is exclusive.
type Entry struct {
	Name   string // bare name as written in the file
	Value  string
	Line   int
	Col    int
	EndCol int
}
