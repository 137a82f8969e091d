package pipeline

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/anggaran/internal/source"
	"github.com/theirongolddev/anggaran/internal/store"
)

// ProgressFunc is called during importing to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Importer is the write side of the document store used by Import.
type Importer interface {
	GetTrackedFiles() (map[string]store.FileInfo, error)
	ReplaceFile(path string, fi store.FileInfo, docs []store.Document) error
}

// ImportResult holds the outcome of an import run.
type ImportResult struct {
	TotalFiles  int
	Imported    int
	Unchanged   int
	FileErrors  int
	ParseErrors int
	Documents   int
	Collections int
	// Errors holds one message per file that could not be read or written.
	Errors []string
}

// Import discovers collection exports in dir, skips files whose mtime and
// size match the last import, parses the rest with a bounded worker pool and
// writes each file's documents in its own transaction. Files are written in
// collection order so hierarchy and catalog land before budgets.
func Import(dir string, st Importer, force bool, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{
		TotalFiles:  len(files),
		Collections: source.CountCollections(files),
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	type pending struct {
		file source.DiscoveredFile
		info store.FileInfo
	}
	var toParse []pending
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		fi := store.FileInfo{Collection: f.Collection, MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		if prev, ok := tracked[f.Path]; ok && !force && prev.MtimeNs == fi.MtimeNs && prev.SizeBytes == fi.SizeBytes {
			result.Unchanged++
			continue
		}
		toParse = append(toParse, pending{file: f, info: fi})
	}

	if progressFn != nil && result.Unchanged > 0 {
		progressFn(result.Unchanged, result.TotalFiles)
	}
	if len(toParse) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(toParse) {
		numWorkers = len(toParse)
	}

	work := make(chan int, len(toParse))
	results := make([]source.ParseResult, len(toParse))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range toParse {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(toParse[idx].file)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+result.Unchanged, result.TotalFiles)
				}
			}
		}()
	}

	wg.Wait()

	for i, pr := range results {
		path := toParse[i].file.Path
		if pr.Err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, pr.Err.Error())
			continue
		}
		result.ParseErrors += pr.ParseErrors

		docs := Documents(pr)
		if err := st.ReplaceFile(path, toParse[i].info, docs); err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		result.Imported++
		result.Documents += len(docs)
	}

	return result, nil
}

// Documents converts a parse result into store documents.
func Documents(pr source.ParseResult) []store.Document {
	docs := make([]store.Document, 0, pr.Len())
	for _, n := range pr.Nodes {
		docs = append(docs, store.NodeDocument(n))
	}
	for _, a := range pr.Accounts {
		docs = append(docs, store.AccountDocument(a))
	}
	for _, b := range pr.Budgets {
		docs = append(docs, store.BudgetDocument(b))
	}
	for _, r := range pr.Realizations {
		docs = append(docs, store.RealizationDocument(r))
	}
	for _, p := range pr.Performances {
		docs = append(docs, store.PerformanceDocument(p))
	}
	return docs
}
