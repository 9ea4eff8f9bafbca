package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertKeyword(&Keyword{Name: "A"})
	require.NoError(t, err)
	id2, err := batch.InsertKeywordArg(&KeywordArg{KeywordID: id1, Name: "x"})
	require.NoError(t, err)
	id3, err := batch.InsertKeywordTag(&KeywordTag{KeywordID: id1, Tag: "t"})
	require.NoError(t, err)

	assert.Equal(t, int64(-1), id1)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, int64(-3), id3)
	assert.Len(t, batch.Keywords, 1)
	assert.Len(t, batch.Args, 1)
	assert.Len(t, batch.Tags, 1)
}

func TestCommitBatch_RemapsKeywordIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	lib := insertTestLibrary(t, s, "/specs/a.libspec", "")

	// Simulates a worker goroutine filling its own batch.
	batch := NewBatchedStore()
	header := *lib
	header.Name = "Alpha"
	header.Doc = "Parsed later."
	require.NoError(t, batch.UpdateLibrary(&header))

	for i, name := range []string{"First", "Second"} {
		kwID, err := batch.InsertKeyword(&Keyword{LibraryID: lib.ID, Name: name, Ordinal: i})
		require.NoError(t, err)
		require.Negative(t, kwID)
		_, err = batch.InsertKeywordArg(&KeywordArg{KeywordID: kwID, Name: name + "_arg", Kind: "positional"})
		require.NoError(t, err)
		_, err = batch.InsertKeywordTag(&KeywordTag{KeywordID: kwID, Tag: name + "_tag"})
		require.NoError(t, err)
	}

	require.NoError(t, s.CommitBatch(batch))

	got, err := s.LibraryByPath("/specs/a.libspec")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	assert.Equal(t, "Parsed later.", got.Doc)

	kws, err := s.KeywordsByLibrary(lib.ID)
	require.NoError(t, err)
	require.Len(t, kws, 2)
	for _, kw := range kws {
		assert.Positive(t, kw.ID)
		args, err := s.KeywordArgs(kw.ID)
		require.NoError(t, err)
		require.Len(t, args, 1)
		assert.Equal(t, kw.Name+"_arg", args[0].Name)

		tags, err := s.KeywordTags(kw.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{kw.Name + "_tag"}, tags)
	}
}

func TestCommitBatch_UnknownKeywordIDFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore()
	batch.Args = append(batch.Args, KeywordArg{KeywordID: -42, Name: "orphan", Kind: "positional"})

	err := s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")
	assert.Zero(t, countRows(t, s, "keyword_args"))
}
