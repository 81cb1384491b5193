package scenario

import "github.com/banshee-data/scenario.report/internal/fsutil"

// MinMapFileSize is the smallest map file accepted as a valid cache entry.
const MinMapFileSize int64 = 10 * 1024

// CacheDecision records whether AcquireMap reused an existing map file.
type CacheDecision string

const (
	CacheHit  CacheDecision = "CacheHit"
	CacheMiss CacheDecision = "CacheMiss"
)

// DecideCache inspects path and returns CacheHit only when the file exists
// and holds at least minSize bytes. The returned size is -1 when the file is
// absent.
func DecideCache(fsys fsutil.FileSystem, path string, minSize int64) (CacheDecision, int64) {
	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return CacheMiss, -1
	}
	if info.Size() >= minSize {
		return CacheHit, info.Size()
	}
	return CacheMiss, info.Size()
}
