package store

import "time"

// Library is one indexed spec file. Hash is the SHA-256 of the file
// content and drives change detection.
type Library struct {
	ID          int64
	Path        string
	Hash        string
	Name        string
	Doc         string
	DocFormat   string
	Version     string
	SpecVersion int
	Type        string
	Scope       string
	NamedArgs   bool
	Source      string
	Lineno      int
	LastIndexed time.Time
}

// Keyword is a keyword or library initializer. Ordinal keeps the order the
// keywords had in the library.
type Keyword struct {
	ID        int64
	LibraryID int64
	Name      string
	Doc       string
	Source    string
	Lineno    int
	IsInit    bool
	Ordinal   int
}

type KeywordArg struct {
	ID        int64
	KeywordID int64
	Ordinal   int
	Original  string
	Name      string
	Kind      string
	TypeExpr  *string
	Default   *string
}

type KeywordTag struct {
	ID        int64
	KeywordID int64
	Ordinal   int
	Tag       string
}

// KeywordName is a keyword together with the library that defines it, the
// row shape used for name lookups.
type KeywordName struct {
	KeywordID   int64
	Name        string
	LibraryName string
	LibraryPath string
}
