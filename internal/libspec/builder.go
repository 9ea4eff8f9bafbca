package libspec

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jward/rfscope/internal/ctxlog"
)

// ErrNotFound is returned by Build when the spec path is not a regular file.
var ErrNotFound = errors.New("libspec: spec file not found")

// FormatError reports a spec document with an unexpected shape.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("libspec: invalid spec file %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("libspec: invalid spec file %q: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// rootTag is the required root element of a keyword spec document.
const rootTag = "keywordspec"

// modernSpecVersion is the first schema with structured arguments.
const modernSpecVersion = 3

var legacyScopes = map[string]Scope{
	"":           ScopeGlobal, // resource files
	"global":     ScopeGlobal,
	"test suite": ScopeSuite,
	"test case":  ScopeTest,
}

type xmlText struct {
	Text string `xml:",chardata"`
}

type xmlSpec struct {
	XMLName   xml.Name
	Attrs     []xml.Attr  `xml:",any,attr"`
	Version   *xmlText    `xml:"version"`
	Doc       xmlText     `xml:"doc"`
	ScopeElem *xmlText    `xml:"scope"`
	NamedArgs *xmlText    `xml:"namedargs"`
	InitsV3   []xmlKeyword `xml:"inits>init"`
	KwsV3     []xmlKeyword `xml:"keywords>kw"`
	InitsV2   []xmlKeyword `xml:"init"`
	KwsV2     []xmlKeyword `xml:"kw"`
}

func (s *xmlSpec) attr(name string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

type xmlKeyword struct {
	Name   string   `xml:"name,attr"`
	Source string   `xml:"source,attr"`
	Lineno string   `xml:"lineno,attr"`
	Doc    xmlText  `xml:"doc"`
	Tags   []string `xml:"tags>tag"`
	Args   []xmlArg `xml:"arguments>arg"`
}

type xmlArg struct {
	Kind    string    `xml:"kind,attr"`
	Repr    string    `xml:"repr,attr"`
	Text    string    `xml:",chardata"`
	Name    *xmlText  `xml:"name"`
	Types   []xmlType `xml:"type"`
	Default *xmlText  `xml:"default"`
}

type xmlType struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

// Build decodes the keyword spec document at path into a LibraryDoc.
//
// Schema versions below 3 carry flat argument strings; later versions carry
// structured <arg> elements. Both end up as the same KeywordArg shape.
func Build(ctx context.Context, path string) (*LibraryDoc, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("libspec: read %s: %w", path, err)
	}
	return BuildFromBytes(ctx, path, data)
}

// BuildFromBytes is Build for an already loaded document; path is used as
// the LibraryDoc filename and for relative source resolution.
func BuildFromBytes(ctx context.Context, path string, data []byte) (*LibraryDoc, error) {
	var spec xmlSpec
	if err := xml.Unmarshal(data, &spec); err != nil {
		return nil, &FormatError{Path: path, Reason: "malformed document", Err: err}
	}
	if spec.XMLName.Local != rootTag {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("root element is <%s>, want <%s>", spec.XMLName.Local, rootTag)}
	}

	scope, err := specScope(&spec)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}

	lib := NewLibraryDoc(path)
	lib.Name, _ = spec.attr("name")
	if typ, ok := spec.attr("type"); ok && typ != "" {
		lib.Type = strings.ToLower(typ)
	}
	if spec.Version != nil {
		lib.Version = spec.Version.Text
	}
	lib.Doc = spec.Doc.Text
	format, _ := spec.attr("format")
	lib.DocFormat = NormalizeDocFormat(format)
	lib.RawSource, _ = spec.attr("source")
	lineno, _ := spec.attr("lineno")
	lib.Lineno = parseLineno(lineno)
	lib.Scope = scope
	lib.NamedArgs = spec.NamedArgs != nil && strings.TrimSpace(spec.NamedArgs.Text) == "yes"

	rawVersion, _ := spec.attr("specversion")
	version, err := strconv.Atoi(strings.TrimSpace(rawVersion))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("libspec: unparsable specversion, using legacy schema",
			"path", path, "specversion", rawVersion, "error", err)
		version = 0
	}
	lib.SpecVersion = version

	if version >= modernSpecVersion {
		lib.Inits = keywordsV3(lib, spec.InitsV3)
		lib.SetKeywords(keywordsV3(lib, spec.KwsV3))
	} else {
		lib.Inits = keywordsV2(lib, spec.InitsV2)
		lib.SetKeywords(keywordsV2(lib, spec.KwsV2))
	}
	return lib, nil
}

// specScope prefers the scope attribute and falls back to the legacy
// <scope> element, whose values are mapped to the modern names.
func specScope(spec *xmlSpec) (Scope, error) {
	if s, ok := spec.attr("scope"); ok {
		return Scope(strings.ToUpper(s)), nil
	}
	var legacy string
	if spec.ScopeElem != nil {
		legacy = strings.TrimSpace(spec.ScopeElem.Text)
	}
	scope, ok := legacyScopes[strings.ToLower(legacy)]
	if !ok {
		return "", fmt.Errorf("unknown legacy scope %q", legacy)
	}
	return scope, nil
}

func parseLineno(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}

func keywordsV2(lib *LibraryDoc, elems []xmlKeyword) []*KeywordDoc {
	kws := make([]*KeywordDoc, 0, len(elems))
	for _, e := range elems {
		var raw []string
		for _, a := range e.Args {
			// A lone "*" marks an empty star slot (keyword-only args follow).
			if a.Text == "*" {
				continue
			}
			raw = append(raw, a.Text)
		}
		kws = append(kws, NewKeywordDoc(lib, KeywordInfo{
			Name:    e.Name,
			RawArgs: raw,
			Doc:     e.Doc.Text,
			Tags:    e.Tags,
			Source:  e.Source,
			Lineno:  parseLineno(e.Lineno),
		}))
	}
	return kws
}

func keywordsV3(lib *LibraryDoc, elems []xmlKeyword) []*KeywordDoc {
	kws := make([]*KeywordDoc, 0, len(elems))
	for _, e := range elems {
		kws = append(kws, NewKeywordDoc(lib, KeywordInfo{
			Name:   e.Name,
			Args:   argumentsV3(e.Args),
			Doc:    e.Doc.Text,
			Tags:   e.Tags,
			Source: e.Source,
			Lineno: parseLineno(e.Lineno),
		}))
	}
	return kws
}

func argumentsV3(elems []xmlArg) []KeywordArg {
	args := make([]KeywordArg, 0, len(elems))
	for _, a := range elems {
		if strings.HasSuffix(a.Kind, "_MARKER") || a.Name == nil {
			continue
		}
		name := a.Name.Text
		repr := a.Repr
		if repr == "" {
			repr = name
		}

		switch a.Kind {
		case "VAR_POSITIONAL":
			args = append(args, ParseArg("@"+name))
			continue
		case "VAR_NAMED":
			args = append(args, ParseArg("&"+name))
			continue
		case "":
			args = append(args, ParseArg(repr))
			continue
		}

		opts := []ArgOption{WithArgName(name)}
		if len(a.Types) > 0 {
			t := a.Types[0]
			typ := strings.TrimSpace(t.Text)
			if typ == "" {
				typ = t.Name
			}
			opts = append(opts, WithArgType(typ))
		}
		if a.Default != nil {
			opts = append(opts, WithArgDefault(a.Default.Text))
		}
		args = append(args, ParseArg(repr, opts...))
	}
	return args
}
