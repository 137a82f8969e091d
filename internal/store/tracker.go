package store

import "time"

// FileInfo holds the tracked state of an imported file.
type FileInfo struct {
	Collection string
	MtimeNs    int64
	SizeBytes  int64
	Documents  int
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, collection, mtime_ns, size_bytes, documents FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.Collection, &fi.MtimeNs, &fi.SizeBytes, &fi.Documents); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// ReplaceFile swaps the documents previously imported from path for docs
// and records the file's state, all in one transaction. Documents with the
// same id that came from elsewhere are overwritten.
func (s *Store) ReplaceFile(path string, fi FileInfo, docs []Document) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM documents WHERE source_file = ?", path); err != nil {
		return err
	}
	if err := putTx(tx, path, docs); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker
		(file_path, collection, mtime_ns, size_bytes, documents, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		path, fi.Collection, fi.MtimeNs, fi.SizeBytes, len(docs), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}
