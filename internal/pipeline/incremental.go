package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadWithCache diffs the files against the parse cache, parses only changed
// files and returns the combined snapshots in file order. A file is unchanged
// when its mtime, size and parse options all match the cached entry.
func LoadWithCache(files []source.DiscoveredFile, opts source.ParseOptions, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	result := &CachedLoadResult{LoadResult: LoadResult{TotalFiles: len(files)}}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	fingerprint := opts.Fingerprint()
	stats := make([]store.FileInfo, len(files))
	var toReparse []source.DiscoveredFile
	var reparseIdx []int
	cachedIdx := make(map[int]struct{})

	for i, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f.Path, err)
		}
		stats[i] = store.FileInfo{
			MtimeNs:     info.ModTime().UnixNano(),
			SizeBytes:   info.Size(),
			Fingerprint: fingerprint,
		}
		if cached, ok := tracked[f.Path]; ok && cached == stats[i] {
			cachedIdx[i] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
			reparseIdx = append(reparseIdx, i)
		}
	}

	result.CacheHits = len(cachedIdx)
	result.Reparsed = len(toReparse)

	perFile := make([]source.ParseResult, len(files))
	if len(cachedIdx) > 0 {
		cached, err := cache.LoadAllSnapshots()
		if err != nil {
			return nil, fmt.Errorf("loading cached snapshots: %w", err)
		}
		for i := range cachedIdx {
			perFile[i] = source.ParseResult{Snapshots: cached[files[i].Path]}
		}
	}

	if len(toReparse) > 0 {
		parsed := parseAll(toReparse, opts, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})
		for j, pr := range parsed {
			i := reparseIdx[j]
			perFile[i] = pr
			if pr.Err != nil {
				continue
			}
			_ = cache.SaveFile(files[i].Path, stats[i], pr.Snapshots)
		}
	}

	for _, pr := range perFile {
		if pr.Err != nil {
			return nil, pr.Err
		}
		result.ParsedFiles++
		result.Snapshots = append(result.Snapshots, pr.Snapshots...)
	}
	result.ContractCount = CountContracts(result.Snapshots)

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "burnline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "burnline")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "snapshots.db")
}
