// Package workspace owns the documents of a project and the import graph
// between them. It is the caller side of variable resolution: the resolver
// only reads what this package has materialized.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jward/rfscope/internal/robot"
)

// Document is one file of the workspace. Its content is read once and its
// robot tree parsed on first use.
type Document struct {
	path string

	srcOnce sync.Once
	src     []byte
	srcErr  error

	treeOnce sync.Once
	tree     *robot.File
}

// Path returns the document's resolved path.
func (d *Document) Path() string { return d.path }

// Source returns the file content.
func (d *Document) Source() ([]byte, error) {
	d.srcOnce.Do(func() {
		d.src, d.srcErr = os.ReadFile(d.path)
		if d.srcErr != nil {
			d.srcErr = fmt.Errorf("workspace: read %s: %w", d.path, d.srcErr)
		}
	})
	return d.src, d.srcErr
}

// Tree returns the parsed robot tree of the document.
func (d *Document) Tree() (*robot.File, error) {
	src, err := d.Source()
	if err != nil {
		return nil, err
	}
	d.treeOnce.Do(func() {
		d.tree = robot.Parse(d.path, src)
	})
	return d.tree, nil
}

func (d *Document) String() string { return d.path }

// Cache hands out one Document per resolved path, so a file reached through a
// symlink or a relative path has the same identity as the file itself.
type Cache struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{docs: make(map[string]*Document)}
}

// Get returns the document at path. It fails when path does not name a
// regular file.
func (c *Cache) Get(path string) (*Document, error) {
	resolved, err := realPath(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.docs[resolved]; ok {
		return d, nil
	}
	d := &Document{path: resolved}
	c.docs[resolved] = d
	return d, nil
}

// Invalidate drops the cached document at path; the next Get re-reads it.
func (c *Cache) Invalidate(path string) {
	resolved, err := realPath(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.docs, resolved)
	c.mu.Unlock()
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func realPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("workspace: abs %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("workspace: resolve %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("workspace: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("workspace: %s is not a regular file", path)
	}
	return resolved, nil
}

// SuiteInits returns the "__init__.robot" documents of doc's directory and
// its parents, nearest first, stopping at root (inclusive).
func (c *Cache) SuiteInits(doc *Document, root string) []*Document {
	stop, err := filepath.Abs(root)
	if err == nil {
		if r, err := filepath.EvalSymlinks(stop); err == nil {
			stop = r
		}
	}
	var out []*Document
	for dir := filepath.Dir(doc.Path()); ; dir = filepath.Dir(dir) {
		if init, err := c.Get(filepath.Join(dir, "__init__.robot")); err == nil && init != doc {
			out = append(out, init)
		}
		if dir == stop || filepath.Dir(dir) == dir {
			return out
		}
	}
}
