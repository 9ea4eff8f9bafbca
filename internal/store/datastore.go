package store

// DataStore is the write side used while storing a parsed library. Both
// Store (direct SQLite) and BatchedStore (in-memory buffering for parallel
// indexing) implement this interface.
type DataStore interface {
	UpdateLibrary(lib *Library) error
	// Inserts return the assigned ID.
	InsertKeyword(kw *Keyword) (int64, error)
	InsertKeywordArg(arg *KeywordArg) (int64, error)
	InsertKeywordTag(tag *KeywordTag) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
