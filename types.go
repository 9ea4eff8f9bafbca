package rfscope

import (
	"github.com/jward/rfscope/internal/libspec"
	"github.com/jward/rfscope/internal/store"
)

// Public type aliases for the internal types used in the Index API. These
// are Go type aliases (=): external consumers need no conversion.

type Store = store.Store
type Library = store.Library
type LibraryDoc = libspec.LibraryDoc
type KeywordDoc = libspec.KeywordDoc
type KeywordArg = libspec.KeywordArg
