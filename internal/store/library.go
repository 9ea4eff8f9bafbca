package store

import (
	"database/sql"
	"fmt"
)

// --- Library operations ---

const libraryColumns = `id, path, hash, name, doc, doc_format, version, spec_version,
	type, scope, named_args, source, lineno, last_indexed`

func (s *Store) InsertLibrary(lib *Library) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO libraries (path, hash, name, doc, doc_format, version, spec_version,
			type, scope, named_args, source, lineno, last_indexed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lib.Path, lib.Hash, lib.Name, lib.Doc, lib.DocFormat, lib.Version, lib.SpecVersion,
		lib.Type, lib.Scope, lib.NamedArgs, lib.Source, lib.Lineno, lib.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert library: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	lib.ID = id
	return id, nil
}

// UpdateLibrary rewrites the header columns of an existing library row.
func (s *Store) UpdateLibrary(lib *Library) error {
	return updateLibrary(s.db, lib)
}

func updateLibrary(db execer, lib *Library) error {
	_, err := db.Exec(
		`UPDATE libraries SET hash = ?, name = ?, doc = ?, doc_format = ?, version = ?,
			spec_version = ?, type = ?, scope = ?, named_args = ?, source = ?, lineno = ?,
			last_indexed = ?
		 WHERE id = ?`,
		lib.Hash, lib.Name, lib.Doc, lib.DocFormat, lib.Version,
		lib.SpecVersion, lib.Type, lib.Scope, lib.NamedArgs, lib.Source, lib.Lineno,
		lib.LastIndexed, lib.ID,
	)
	if err != nil {
		return fmt.Errorf("update library %q: %w", lib.Path, err)
	}
	return nil
}

func scanLibrary(scanner interface{ Scan(...any) error }) (*Library, error) {
	lib := &Library{}
	var hash, name, doc, format, version, typ, scope, source sql.NullString
	var lastIndexed sql.NullTime
	err := scanner.Scan(&lib.ID, &lib.Path, &hash, &name, &doc, &format, &version, &lib.SpecVersion,
		&typ, &scope, &lib.NamedArgs, &source, &lib.Lineno, &lastIndexed)
	if err != nil {
		return nil, err
	}
	lib.Hash, lib.Name, lib.Doc = hash.String, name.String, doc.String
	lib.DocFormat, lib.Version = format.String, version.String
	lib.Type, lib.Scope, lib.Source = typ.String, scope.String, source.String
	lib.LastIndexed = lastIndexed.Time
	return lib, nil
}

// LibraryByPath returns the library indexed from path, or nil if there is
// none.
func (s *Store) LibraryByPath(path string) (*Library, error) {
	lib, err := scanLibrary(s.db.QueryRow("SELECT "+libraryColumns+" FROM libraries WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("library by path: %w", err)
	}
	return lib, nil
}

// Libraries returns every indexed library ordered by name, then path.
func (s *Store) Libraries() ([]*Library, error) {
	rows, err := s.db.Query("SELECT " + libraryColumns + " FROM libraries ORDER BY name, path")
	if err != nil {
		return nil, fmt.Errorf("libraries: %w", err)
	}
	defer rows.Close()
	var libs []*Library
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}

// --- Keyword operations ---

func (s *Store) InsertKeyword(kw *Keyword) (int64, error) {
	id, err := insertKeywordTx(s.db, kw)
	if err != nil {
		return 0, err
	}
	kw.ID = id
	return id, nil
}

// KeywordsByLibrary returns the keywords and initializers of a library in
// ordinal order.
func (s *Store) KeywordsByLibrary(libraryID int64) ([]*Keyword, error) {
	rows, err := s.db.Query(
		`SELECT id, library_id, name, doc, source, lineno, is_init, ordinal
		 FROM keywords WHERE library_id = ? ORDER BY is_init DESC, ordinal`, libraryID,
	)
	if err != nil {
		return nil, fmt.Errorf("keywords by library: %w", err)
	}
	defer rows.Close()
	var kws []*Keyword
	for rows.Next() {
		kw := &Keyword{}
		var doc, source sql.NullString
		if err := rows.Scan(&kw.ID, &kw.LibraryID, &kw.Name, &doc, &source, &kw.Lineno, &kw.IsInit, &kw.Ordinal); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		kw.Doc, kw.Source = doc.String, source.String
		kws = append(kws, kw)
	}
	return kws, rows.Err()
}

// KeywordNames returns every non-initializer keyword with its library.
func (s *Store) KeywordNames() ([]*KeywordName, error) {
	rows, err := s.db.Query(
		`SELECT k.id, k.name, COALESCE(l.name, ''), l.path
		 FROM keywords k JOIN libraries l ON l.id = k.library_id
		 WHERE k.is_init = FALSE
		 ORDER BY l.name, l.path, k.ordinal`,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword names: %w", err)
	}
	defer rows.Close()
	var out []*KeywordName
	for rows.Next() {
		kn := &KeywordName{}
		if err := rows.Scan(&kn.KeywordID, &kn.Name, &kn.LibraryName, &kn.LibraryPath); err != nil {
			return nil, fmt.Errorf("scan keyword name: %w", err)
		}
		out = append(out, kn)
	}
	return out, rows.Err()
}

// --- Argument operations ---

func (s *Store) InsertKeywordArg(arg *KeywordArg) (int64, error) {
	id, err := insertKeywordArgTx(s.db, arg)
	if err != nil {
		return 0, err
	}
	arg.ID = id
	return id, nil
}

// KeywordArgs returns the arguments of a keyword in declaration order.
func (s *Store) KeywordArgs(keywordID int64) ([]*KeywordArg, error) {
	rows, err := s.db.Query(
		`SELECT id, keyword_id, ordinal, original, name, kind, type_expr, default_expr
		 FROM keyword_args WHERE keyword_id = ? ORDER BY ordinal`, keywordID,
	)
	if err != nil {
		return nil, fmt.Errorf("keyword args: %w", err)
	}
	defer rows.Close()
	var args []*KeywordArg
	for rows.Next() {
		a := &KeywordArg{}
		var original, typeExpr, def sql.NullString
		if err := rows.Scan(&a.ID, &a.KeywordID, &a.Ordinal, &original, &a.Name, &a.Kind, &typeExpr, &def); err != nil {
			return nil, fmt.Errorf("scan keyword arg: %w", err)
		}
		a.Original = original.String
		a.TypeExpr = nullableString(typeExpr)
		a.Default = nullableString(def)
		args = append(args, a)
	}
	return args, rows.Err()
}

// --- Tag operations ---

func (s *Store) InsertKeywordTag(tag *KeywordTag) (int64, error) {
	id, err := insertKeywordTagTx(s.db, tag)
	if err != nil {
		return 0, err
	}
	tag.ID = id
	return id, nil
}

// KeywordTags returns the tags of a keyword in declaration order.
func (s *Store) KeywordTags(keywordID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT tag FROM keyword_tags WHERE keyword_id = ? ORDER BY ordinal", keywordID)
	if err != nil {
		return nil, fmt.Errorf("keyword tags: %w", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan keyword tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
