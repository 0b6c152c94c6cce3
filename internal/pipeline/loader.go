package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/source"
)

// LoadResult holds the output of the data loading stage.
type LoadResult struct {
	Snapshots     []model.Snapshot
	TotalFiles    int
	ParsedFiles   int
	ContractCount int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load parses all discovered files with a bounded worker pool. Snapshots keep
// file order, then row order. The first parse error, in file order, aborts
// the load.
func Load(files []source.DiscoveredFile, opts source.ParseOptions, progressFn ProgressFunc) (*LoadResult, error) {
	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results := parseAll(files, opts, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})

	for _, pr := range results {
		if pr.Err != nil {
			return nil, pr.Err
		}
		result.ParsedFiles++
		result.Snapshots = append(result.Snapshots, pr.Snapshots...)
	}
	result.ContractCount = CountContracts(result.Snapshots)

	return result, nil
}

// parseAll parses files in parallel into index-aligned results.
func parseAll(files []source.DiscoveredFile, opts source.ParseOptions, done func(n int)) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx], opts)
				done(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()
	return results
}

// CountContracts returns the number of distinct base contracts.
func CountContracts(snaps []model.Snapshot) int {
	seen := make(map[string]struct{})
	for _, s := range snaps {
		seen[s.Contract.BaseID] = struct{}{}
	}
	return len(seen)
}
