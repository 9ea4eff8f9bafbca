package rfscope

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jward/rfscope/internal/ctxlog"
	"github.com/jward/rfscope/internal/libspec"
	"github.com/jward/rfscope/internal/store"
)

// ErrNotIndexed is returned by Index.Library for a spec file that is not
// in the index.
var ErrNotIndexed = errors.New("rfscope: library not indexed")

// storeFormat is bumped whenever the way specs are written to the store
// changes; an index built with another value is cleared on open.
const storeFormat = "1"

// Index is a persistent cache of parsed keyword spec files, owned by the
// caller. Unchanged files are detected by content hash and skipped.
type Index struct {
	store *store.Store

	// useParallel enables the worker pool for parsing.
	useParallel bool
	workers     int
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithParallel controls parallel parsing. When true (default), IndexSpecs
// parses files in a worker pool and a single goroutine commits the results
// to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) IndexOption {
	return func(ix *Index) {
		ix.useParallel = parallel
	}
}

// WithWorkers caps the worker pool size. Zero or less means one worker per
// CPU.
func WithWorkers(n int) IndexOption {
	return func(ix *Index) {
		ix.workers = n
	}
}

// OpenIndex opens (or creates) an index backed by a SQLite database at
// dbPath. An index written in an older store format is emptied.
func OpenIndex(dbPath string, opts ...IndexOption) (*Index, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("rfscope: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("rfscope: migrate: %w", err)
	}

	ix := &Index{store: s, useParallel: true}
	for _, opt := range opts {
		opt(ix)
	}

	if stored, err := s.GetMetadata("store_format"); err != nil || stored != storeFormat {
		if err := s.Reset(); err != nil {
			s.Close()
			return nil, fmt.Errorf("rfscope: reset index: %w", err)
		}
		if err := s.SetMetadata("store_format", storeFormat); err != nil {
			s.Close()
			return nil, fmt.Errorf("rfscope: %w", err)
		}
	}
	return ix, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	return ix.store.Close()
}

// Store returns the underlying Store for direct access.
func (ix *Index) Store() *store.Store {
	return ix.store
}

// IndexSpecs parses and stores the given spec files. Files whose content is
// unchanged since the last run are skipped. Errors on individual files do
// not stop the others; they are aggregated into the returned error.
func (ix *Index) IndexSpecs(ctx context.Context, paths []string) error {
	if ix.useParallel {
		return ix.indexSpecsParallel(ctx, paths)
	}
	return ix.indexSpecsSerial(ctx, paths)
}

func (ix *Index) indexSpecsSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rfscope: index: %w", err)
		}
		if err := ix.indexSpec(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	return joinIndexErrors("indexing", errs)
}

// joinIndexErrors summarizes per-file errors as "<what> had N error(s):
// first", or returns nil when there are none.
func joinIndexErrors(what string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s had %d error(s): %w", what, len(errs), errs[0])
}

func (ix *Index) indexSpec(ctx context.Context, path string) error {
	item, skip, err := ix.prepareSpec(ctx, path)
	if err != nil || skip {
		return err
	}
	lib, err := libspec.BuildFromBytes(ctx, item.path, item.content)
	if err != nil {
		ix.discard(ctx, item)
		return err
	}
	if err := writeLibrary(ix.store, item.row, lib); err != nil {
		ix.discard(ctx, item)
		return err
	}
	return nil
}

// discard removes the placeholder row of a spec that failed to index, so
// the next run tries it again.
func (ix *Index) discard(ctx context.Context, item specItem) {
	if err := ix.store.DeleteLibraryData(item.row.ID); err != nil {
		ctxlog.FromContext(ctx).Warn("rfscope: discard failed spec", "path", item.path, "error", err)
	}
}

// writeLibrary stores the header, keywords, arguments and tags of lib over
// the pre-inserted library row.
func writeLibrary(ds store.DataStore, row *store.Library, lib *libspec.LibraryDoc) error {
	header := *row
	header.Name = lib.Name
	header.Doc = lib.Doc
	header.DocFormat = string(lib.DocFormat)
	header.Version = lib.Version
	header.SpecVersion = lib.SpecVersion
	header.Type = lib.Type
	header.Scope = string(lib.Scope)
	header.NamedArgs = lib.NamedArgs
	header.Source = lib.RawSource
	header.Lineno = lib.Lineno
	if err := ds.UpdateLibrary(&header); err != nil {
		return err
	}

	write := func(kws []*libspec.KeywordDoc, isInit bool) error {
		for i, kd := range kws {
			kwID, err := ds.InsertKeyword(&store.Keyword{
				LibraryID: row.ID,
				Name:      kd.Name,
				Doc:       kd.Doc,
				Source:    kd.Source(),
				Lineno:    kd.Lineno,
				IsInit:    isInit,
				Ordinal:   i,
			})
			if err != nil {
				return fmt.Errorf("keyword %q: %w", kd.Name, err)
			}
			for j, a := range kd.Args() {
				_, err := ds.InsertKeywordArg(&store.KeywordArg{
					KeywordID: kwID,
					Ordinal:   j,
					Original:  a.Original,
					Name:      a.Name,
					Kind:      string(a.Kind),
					TypeExpr:  a.Type,
					Default:   a.Default,
				})
				if err != nil {
					return fmt.Errorf("keyword %q: %w", kd.Name, err)
				}
			}
			for j, tag := range kd.Tags {
				if _, err := ds.InsertKeywordTag(&store.KeywordTag{KeywordID: kwID, Ordinal: j, Tag: tag}); err != nil {
					return fmt.Errorf("keyword %q: %w", kd.Name, err)
				}
			}
		}
		return nil
	}
	if err := write(lib.Inits, true); err != nil {
		return err
	}
	return write(lib.Keywords(), false)
}

// IndexDirectory indexes every spec file under root. Files are listed with
// git when root is inside a work tree, so ignored files are skipped;
// otherwise the directory is walked.
func (ix *Index) IndexDirectory(ctx context.Context, root string) error {
	paths, err := gitListSpecs(root)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("rfscope: git listing unavailable, walking", "root", root, "error", err)
		paths, err = walkListSpecs(root)
		if err != nil {
			return err
		}
	}
	return ix.IndexSpecs(ctx, paths)
}

// IsSpecFile reports whether path has a keyword spec extension.
func IsSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".libspec", ".xml":
		return true
	}
	return false
}

// gitListSpecs uses git ls-files to discover tracked and untracked (but not
// ignored) spec files under root.
func gitListSpecs(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsSpecFile(line) {
			paths = append(paths, filepath.Join(root, line))
		}
	}
	return paths, nil
}

// skipDirs are never descended into while walking.
var skipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
}

// walkListSpecs discovers spec files by walking the filesystem. Skips
// hidden directories and the directories in skipDirs.
func walkListSpecs(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSpecFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rfscope: walk %s: %w", root, err)
	}
	return paths, nil
}

// Library rebuilds the LibraryDoc indexed from the spec file at path.
func (ix *Index) Library(path string) (*LibraryDoc, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("rfscope: library: %w", err)
	}
	row, err := ix.store.LibraryByPath(abs)
	if err != nil {
		return nil, fmt.Errorf("rfscope: library: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}
	return ix.rebuild(row)
}

// Libraries returns the header rows of every indexed library.
func (ix *Index) Libraries() ([]*store.Library, error) {
	libs, err := ix.store.Libraries()
	if err != nil {
		return nil, fmt.Errorf("rfscope: libraries: %w", err)
	}
	return libs, nil
}

func (ix *Index) rebuild(row *store.Library) (*LibraryDoc, error) {
	lib := libspec.NewLibraryDoc(row.Path)
	lib.Name = row.Name
	lib.Doc = row.Doc
	lib.DocFormat = libspec.NormalizeDocFormat(row.DocFormat)
	lib.Version = row.Version
	lib.SpecVersion = row.SpecVersion
	lib.Type = row.Type
	lib.Scope = libspec.Scope(row.Scope)
	lib.NamedArgs = row.NamedArgs
	lib.RawSource = row.Source
	lib.Lineno = row.Lineno

	kws, err := ix.store.KeywordsByLibrary(row.ID)
	if err != nil {
		return nil, fmt.Errorf("rfscope: library %s: %w", row.Path, err)
	}
	var keywords []*libspec.KeywordDoc
	for _, kw := range kws {
		argRows, err := ix.store.KeywordArgs(kw.ID)
		if err != nil {
			return nil, fmt.Errorf("rfscope: library %s: %w", row.Path, err)
		}
		tags, err := ix.store.KeywordTags(kw.ID)
		if err != nil {
			return nil, fmt.Errorf("rfscope: library %s: %w", row.Path, err)
		}
		args := make([]libspec.KeywordArg, len(argRows))
		for i, a := range argRows {
			args[i] = libspec.KeywordArg{
				Original: a.Original,
				Name:     a.Name,
				Kind:     libspec.ArgKind(a.Kind),
				Type:     a.TypeExpr,
				Default:  a.Default,
			}
		}
		kd := libspec.NewKeywordDoc(lib, libspec.KeywordInfo{
			Name:   kw.Name,
			Args:   args,
			Doc:    kw.Doc,
			Tags:   tags,
			Source: kw.Source,
			Lineno: kw.Lineno,
		})
		if kw.IsInit {
			lib.Inits = append(lib.Inits, kd)
			continue
		}
		keywords = append(keywords, kd)
	}
	lib.SetKeywords(keywords)
	return lib, nil
}

// KeywordMatch is a keyword found by FindKeywords. Lower Distance is a
// closer match.
type KeywordMatch struct {
	Name     string `json:"name"`
	Library  string `json:"library"`
	Path     string `json:"path"`
	Distance int    `json:"distance"`
}

// FindKeywords ranks indexed keyword names against query, case-insensitively,
// requiring the query's characters to appear in order. At most limit matches
// are returned; limit <= 0 returns all.
func (ix *Index) FindKeywords(query string, limit int) ([]KeywordMatch, error) {
	names, err := ix.store.KeywordNames()
	if err != nil {
		return nil, fmt.Errorf("rfscope: find keywords: %w", err)
	}
	targets := make([]string, len(names))
	for i, n := range names {
		targets[i] = n.Name
	}

	ranks := fuzzy.RankFindFold(query, targets)
	sort.Stable(ranks)
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}

	out := make([]KeywordMatch, len(ranks))
	for i, r := range ranks {
		n := names[r.OriginalIndex]
		out[i] = KeywordMatch{Name: n.Name, Library: n.LibraryName, Path: n.LibraryPath, Distance: r.Distance}
	}
	return out, nil
}

// specItem is one spec file that needs (re)indexing.
type specItem struct {
	path    string
	content []byte
	row     *store.Library
}

// prepareSpec does the serial part of indexing one file: hash check,
// cleanup of stale rows and a placeholder library row. skip=true means the
// file is unchanged or not a spec file.
func (ix *Index) prepareSpec(_ context.Context, path string) (specItem, bool, error) {
	if !IsSpecFile(path) {
		return specItem{}, true, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return specItem{}, false, fmt.Errorf("resolve path: %w", err)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return specItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := ix.store.LibraryByPath(abs)
	if err != nil {
		return specItem{}, false, fmt.Errorf("lookup library: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return specItem{}, true, nil // unchanged
	}
	if existing != nil {
		if err := ix.store.DeleteLibraryData(existing.ID); err != nil {
			return specItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	row := &store.Library{Path: abs, Hash: hash, Lineno: -1, LastIndexed: time.Now()}
	if _, err := ix.store.InsertLibrary(row); err != nil {
		return specItem{}, false, fmt.Errorf("insert library: %w", err)
	}
	return specItem{path: abs, content: content, row: row}, false, nil
}
