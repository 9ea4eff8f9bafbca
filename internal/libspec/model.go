package libspec

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"weak"
)

// Scope is the variable/instance scope declared by a library.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeSuite  Scope = "SUITE"
	ScopeTest   Scope = "TEST"
)

// DocFormat is the markup used by a library's documentation.
type DocFormat string

const (
	FormatRobot    DocFormat = "ROBOT"
	FormatHTML     DocFormat = "HTML"
	FormatText     DocFormat = "TEXT"
	FormatReST     DocFormat = "REST"
	FormatMarkdown DocFormat = "MARKDOWN"
)

// NormalizeDocFormat upper-cases f and maps the empty value to FormatRobot.
func NormalizeDocFormat(f string) DocFormat {
	f = strings.ToUpper(strings.TrimSpace(f))
	switch f {
	case "":
		return FormatRobot
	case "MD":
		return FormatMarkdown
	}
	return DocFormat(f)
}

// MarkupKind tells an editor how to display documentation.
type MarkupKind string

const (
	MarkupPlainText MarkupKind = "plaintext"
	MarkupMarkdown  MarkupKind = "markdown"
)

// Renderer converts documentation in a non-markdown format to markdown.
// ok is false when the conversion is unavailable.
type Renderer interface {
	ToMarkdown(format DocFormat, doc string) (md string, ok bool)
}

// LibraryDoc is the documentation of one library or resource file. All
// exported fields are read-only once Build (or the store) has returned it;
// the memoized accessors rely on that.
type LibraryDoc struct {
	Filename    string
	Name        string
	Doc         string
	DocFormat   DocFormat
	Version     string // tool version that generated the spec
	SpecVersion int
	Type        string // "library" or "resource"
	Scope       Scope
	NamedArgs   bool
	RawSource   string
	Lineno      int
	Inits       []*KeywordDoc

	keywords []*KeywordDoc

	sourceOnce sync.Once
	source     string
	md         atomic.Pointer[renderedDoc]
}

// NewLibraryDoc returns an empty LibraryDoc for the spec file at filename.
func NewLibraryDoc(filename string) *LibraryDoc {
	return &LibraryDoc{
		Filename:  filename,
		DocFormat: FormatRobot,
		Type:      "library",
		Lineno:    -1,
	}
}

// Keywords returns the keywords sorted by name. Callers must not modify
// the returned slice.
func (l *LibraryDoc) Keywords() []*KeywordDoc {
	return l.keywords
}

// SetKeywords replaces the keyword list, sorting it by name.
func (l *LibraryDoc) SetKeywords(kws []*KeywordDoc) {
	sorted := slices.Clone(kws)
	slices.SortStableFunc(sorted, func(a, b *KeywordDoc) int {
		return strings.Compare(a.Name, b.Name)
	})
	l.keywords = sorted
}

// Source returns the library source path, made absolute relative to the
// spec file's directory. Empty when the spec declares no source.
func (l *LibraryDoc) Source() string {
	l.sourceOnce.Do(func() {
		l.source = l.makeAbsolute(l.RawSource)
	})
	return l.source
}

func (l *LibraryDoc) makeAbsolute(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(filepath.Join(filepath.Dir(l.Filename), p))
	if err != nil {
		return filepath.Join(filepath.Dir(l.Filename), p)
	}
	return abs
}

// AllTags returns the tags of every keyword, in keyword order.
func (l *LibraryDoc) AllTags() []string {
	var tags []string
	for _, kw := range l.keywords {
		tags = append(tags, kw.Tags...)
	}
	return tags
}

// DocsAndFormat returns the library documentation ready for display.
func (l *LibraryDoc) DocsAndFormat(r Renderer) (string, MarkupKind) {
	return docsAndFormat(&l.md, l.DocFormat, l.Doc, r)
}

func (l *LibraryDoc) String() string {
	return fmt.Sprintf("LibraryDoc(%s, %s, keywords:%d)", l.Filename, l.Name, len(l.keywords))
}

// KeywordInfo carries the fields of a keyword at construction time. Exactly
// one of RawArgs (flat legacy tokens) and Args (already structured) is used.
type KeywordInfo struct {
	Name    string
	RawArgs []string
	Args    []KeywordArg
	Doc     string
	Tags    []string
	Source  string
	Lineno  int
}

// KeywordDoc documents one keyword. It refers back to its library weakly:
// a keyword may be held after the library has been dropped, in which case
// Library returns nil.
type KeywordDoc struct {
	Name   string
	Doc    string
	Tags   []string
	Lineno int

	lib       weak.Pointer[LibraryDoc]
	rawArgs   []string
	rawSource string

	argsOnce   sync.Once
	args       []KeywordArg
	sourceOnce sync.Once
	source     string
	md         atomic.Pointer[renderedDoc]
}

// NewKeywordDoc creates a keyword owned by lib. Tags are de-duplicated,
// keeping first-seen order.
func NewKeywordDoc(lib *LibraryDoc, info KeywordInfo) *KeywordDoc {
	kw := &KeywordDoc{
		Name:      info.Name,
		Doc:       info.Doc,
		Tags:      uniqueTags(info.Tags),
		Lineno:    info.Lineno,
		rawArgs:   info.RawArgs,
		rawSource: info.Source,
	}
	if lib != nil {
		kw.lib = weak.Make(lib)
	}
	if info.Args != nil {
		kw.args = info.Args
	}
	return kw
}

func uniqueTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Library returns the owning library, or nil if it is no longer alive.
func (k *KeywordDoc) Library() *LibraryDoc {
	return k.lib.Value()
}

// Args returns the keyword's arguments, parsing legacy tokens on first use.
func (k *KeywordDoc) Args() []KeywordArg {
	k.argsOnce.Do(func() {
		if k.args != nil {
			return
		}
		args := make([]KeywordArg, 0, len(k.rawArgs))
		for _, raw := range k.rawArgs {
			args = append(args, ParseArg(raw))
		}
		k.args = args
	})
	return k.args
}

// Source returns the keyword source path, made absolute relative to the
// owning spec file when the library is still available. A relative path
// read without a library is returned as-is and not memoized.
func (k *KeywordDoc) Source() string {
	src := k.rawSource
	if src == "" || filepath.IsAbs(src) {
		return src
	}
	lib := k.Library()
	if lib == nil {
		return src
	}
	k.sourceOnce.Do(func() {
		k.source = lib.makeAbsolute(src)
	})
	return k.source
}

// DocFormat is the owning library's format, FormatRobot if it is gone.
func (k *KeywordDoc) DocFormat() DocFormat {
	if lib := k.Library(); lib != nil {
		return lib.DocFormat
	}
	return FormatRobot
}

// Deprecated reports whether the documentation starts with a
// "*DEPRECATED ...*" marker.
func (k *KeywordDoc) Deprecated() bool {
	return strings.HasPrefix(k.Doc, "*DEPRECATED") && strings.Contains(k.Doc[1:], "*")
}

// DocsAndFormat returns the keyword documentation ready for display.
func (k *KeywordDoc) DocsAndFormat(r Renderer) (string, MarkupKind) {
	return docsAndFormat(&k.md, k.DocFormat(), k.Doc, r)
}

func (k *KeywordDoc) String() string {
	return fmt.Sprintf("KeywordDoc(%s, line: %d)", k.Name, k.Lineno)
}

type renderedDoc struct {
	text string
	ok   bool
}

func docsAndFormat(cache *atomic.Pointer[renderedDoc], format DocFormat, doc string, r Renderer) (string, MarkupKind) {
	switch format {
	case FormatMarkdown:
		return doc, MarkupMarkdown
	case FormatRobot, FormatHTML, FormatReST:
		if doc == "" {
			return "", MarkupMarkdown
		}
		rd := cache.Load()
		if rd == nil && r != nil {
			md, ok := r.ToMarkdown(format, doc)
			rd = &renderedDoc{text: md, ok: ok}
			cache.Store(rd)
		}
		if rd != nil && rd.ok {
			return rd.text, MarkupMarkdown
		}
	}
	return doc, MarkupPlainText
}
