package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir lists the collection exports in dir. A file is picked up when its
// base name, lowercased and without "_" or "-", is a known collection followed
// by ".json" or ".jsonl". Unknown files are ignored; a missing dir yields
// nothing. Results are in Collections order.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	rank := make(map[string]int, len(Collections))
	for i, c := range Collections {
		rank[c] = i
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".jsonl" {
			continue
		}
		collection := canonicalCollection(strings.TrimSuffix(name, filepath.Ext(name)))
		if _, ok := rank[collection]; !ok {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:       filepath.Join(dir, name),
			Collection: collection,
			Lines:      ext == ".jsonl",
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		ri, rj := rank[files[i].Collection], rank[files[j].Collection]
		if ri != rj {
			return ri < rj
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// canonicalCollection maps "sub_activities", "Account-Codes" and the like to
// their collection name.
func canonicalCollection(base string) string {
	base = strings.ToLower(base)
	base = strings.NewReplacer("_", "", "-", "").Replace(base)
	return base
}

// CountCollections returns the number of distinct collections in files.
func CountCollections(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Collection] = struct{}{}
	}
	return len(seen)
}
