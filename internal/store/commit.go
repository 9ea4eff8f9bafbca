package store

import "fmt"

// CommitBatch writes everything buffered in a BatchedStore within a single
// transaction. Fake (negative) keyword IDs are remapped to the real IDs
// SQLite assigns, and the argument and tag rows are rewritten to match.
//
// Insert order respects FK dependencies:
//  1. Library header (the row already exists, inserted before parsing)
//  2. Keywords (depend on library_id, which is already real)
//  3. KeywordArgs (depend on keyword_id)
//  4. KeywordTags (depend on keyword_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if batch.Library != nil {
		if err := updateLibrary(tx, batch.Library); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	fakeToReal := make(map[int64]int64, len(batch.Keywords))

	for _, kw := range batch.Keywords {
		realID, err := insertKeywordTx(tx, &kw)
		if err != nil {
			return fmt.Errorf("commit batch: keyword %q: %w", kw.Name, err)
		}
		fakeToReal[kw.ID] = realID
	}

	for _, arg := range batch.Args {
		if arg.KeywordID < 0 {
			realID, ok := fakeToReal[arg.KeywordID]
			if !ok {
				return fmt.Errorf("commit batch: argument %q has keyword_id=%d not in fakeToReal map (have %d keywords)", arg.Name, arg.KeywordID, len(batch.Keywords))
			}
			arg.KeywordID = realID
		}
		if _, err := insertKeywordArgTx(tx, &arg); err != nil {
			return fmt.Errorf("commit batch: argument %q: %w", arg.Name, err)
		}
	}

	for _, tag := range batch.Tags {
		if tag.KeywordID < 0 {
			tag.KeywordID = fakeToReal[tag.KeywordID]
		}
		if _, err := insertKeywordTagTx(tx, &tag); err != nil {
			return fmt.Errorf("commit batch: tag %q: %w", tag.Tag, err)
		}
	}

	return tx.Commit()
}

// --- Insert helpers ---
// These accept either the *sql.DB or a *sql.Tx.

func insertKeywordTx(db execer, kw *Keyword) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO keywords (library_id, name, doc, source, lineno, is_init, ordinal)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		kw.LibraryID, kw.Name, kw.Doc, kw.Source, kw.Lineno, kw.IsInit, kw.Ordinal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert keyword: %w", err)
	}
	return res.LastInsertId()
}

func insertKeywordArgTx(db execer, arg *KeywordArg) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO keyword_args (keyword_id, ordinal, original, name, kind, type_expr, default_expr)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.KeywordID, arg.Ordinal, arg.Original, arg.Name, arg.Kind, arg.TypeExpr, arg.Default,
	)
	if err != nil {
		return 0, fmt.Errorf("insert keyword arg: %w", err)
	}
	return res.LastInsertId()
}

func insertKeywordTagTx(db execer, tag *KeywordTag) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO keyword_tags (keyword_id, ordinal, tag) VALUES (?, ?, ?)",
		tag.KeywordID, tag.Ordinal, tag.Tag,
	)
	if err != nil {
		return 0, fmt.Errorf("insert keyword tag: %w", err)
	}
	return res.LastInsertId()
}
