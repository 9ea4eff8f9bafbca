package store

import "sync"

// BatchedStore buffers the rows of one parsed library in memory using fake
// (negative) IDs. It implements DataStore so the spec writer does not know
// whether it is hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	// Library is the header to write over the pre-inserted library row.
	Library  *Library
	Keywords []Keyword
	Args     []KeywordArg
	Tags     []KeywordTag

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) UpdateLibrary(lib *Library) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *lib
	b.Library = &cp
	return nil
}

func (b *BatchedStore) InsertKeyword(kw *Keyword) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	kw.ID = fakeID
	b.Keywords = append(b.Keywords, *kw)
	return fakeID, nil
}

func (b *BatchedStore) InsertKeywordArg(arg *KeywordArg) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	arg.ID = fakeID
	b.Args = append(b.Args, *arg)
	return fakeID, nil
}

func (b *BatchedStore) InsertKeywordTag(tag *KeywordTag) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	tag.ID = fakeID
	b.Tags = append(b.Tags, *tag)
	return fakeID, nil
}
