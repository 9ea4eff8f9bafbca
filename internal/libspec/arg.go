package libspec

import "strings"

// ArgKind classifies a keyword argument.
type ArgKind string

const (
	ArgPositional     ArgKind = "positional"
	ArgStarList       ArgKind = "star-list"        // @{args} / *args
	ArgDoubleStarDict ArgKind = "double-star-dict" // &{kwargs} / **kwargs
)

// KeywordArg describes one keyword argument. Type and Default are only
// meaningful for ArgPositional.
type KeywordArg struct {
	Original string
	Name     string
	Kind     ArgKind
	Type     *string
	Default  *string
}

// ArgOption supplies a structurally known part of an argument so ParseArg
// does not have to recover it from the raw token.
type ArgOption func(*argParts)

type argParts struct {
	name, typ, def *string
}

// WithArgName sets the argument name explicitly.
func WithArgName(name string) ArgOption {
	return func(p *argParts) { p.name = &name }
}

// WithArgType sets the declared type explicitly.
func WithArgType(typ string) ArgOption {
	return func(p *argParts) { p.typ = &typ }
}

// WithArgDefault sets the default value explicitly.
func WithArgDefault(def string) ArgOption {
	return func(p *argParts) { p.def = &def }
}

// ParseArg parses a raw argument token such as "x:int=5", "*args" or
// "&{kwargs}". It never fails: shapes it does not understand become a
// positional argument named after the token.
//
// Defaults are split off at the last '=' and types at the last ':' of what
// remains, so "a:str=x:y" yields type "str" and default "x:y". A type that
// itself contains '=' is not supported.
func ParseArg(raw string, opts ...ArgOption) KeywordArg {
	var parts argParts
	for _, opt := range opts {
		opt(&parts)
	}

	arg := KeywordArg{Original: raw, Kind: ArgPositional}
	rest := raw

	switch {
	case strings.HasPrefix(rest, "&"):
		arg.Kind = ArgDoubleStarDict
		rest = rest[1:]
	case strings.HasPrefix(rest, "@"):
		arg.Kind = ArgStarList
		rest = rest[1:]
	case strings.HasPrefix(rest, "**"):
		arg.Kind = ArgDoubleStarDict
		rest = rest[2:]
	case strings.HasPrefix(rest, "*"):
		arg.Kind = ArgStarList
		rest = rest[1:]
	default:
		if parts.def != nil {
			arg.Default = parts.def
			// The token may still spell the default out; drop it so the
			// type split below only sees the left-hand side.
			if i := strings.LastIndex(rest, "="); i != -1 {
				rest = rest[:i]
			}
		} else if i := strings.LastIndex(rest, "="); i != -1 {
			def := strings.TrimSpace(rest[i+1:])
			arg.Default = &def
			rest = rest[:i]
		}

		if parts.typ != nil {
			arg.Type = parts.typ
			if i := strings.LastIndex(rest, ":"); i != -1 {
				rest = rest[:i]
			}
		} else if i := strings.LastIndex(rest, ":"); i != -1 {
			typ := strings.TrimSpace(rest[i+1:])
			arg.Type = &typ
			rest = rest[:i]
		}
	}

	if arg.Kind != ArgPositional {
		rest = stripBraces(rest)
	}

	if parts.name != nil {
		arg.Name = *parts.name
	} else {
		arg.Name = strings.TrimSpace(rest)
	}
	return arg
}

// stripBraces turns "{args}" into "args" for the @{args} / &{kwargs} spelling.
func stripBraces(s string) string {
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s[1 : len(s)-1]
	}
	return s
}

// String renders the canonical text form of the argument. Parsing it again
// yields an equal descriptor apart from Original.
func (a KeywordArg) String() string {
	switch a.Kind {
	case ArgStarList:
		return "@" + a.Name
	case ArgDoubleStarDict:
		return "&" + a.Name
	}
	var b strings.Builder
	b.WriteString(a.Name)
	if a.Type != nil {
		b.WriteString(":")
		b.WriteString(*a.Type)
	}
	if a.Default != nil {
		b.WriteString("=")
		b.WriteString(*a.Default)
	}
	return b.String()
}

// IsStar reports whether the argument collects extra positional values.
func (a KeywordArg) IsStar() bool { return a.Kind == ArgStarList }

// IsKeywordArg reports whether the argument collects extra named values.
func (a KeywordArg) IsKeywordArg() bool { return a.Kind == ArgDoubleStarDict }
