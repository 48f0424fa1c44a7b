package wheelcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"wheelhouse/internal/artifact"
	"wheelhouse/internal/fileutil"
	"wheelhouse/internal/logging"
)

const lockFileName = ".wheelhouse.lock"

// ErrLocked reports that another bootstrap holds the cache directory.
var ErrLocked = errors.New("wheel cache is locked by another process")

// Entry describes one cached wheel.
type Entry struct {
	Path    string
	Wheel   artifact.Wheel
	Size    int64
	ModTime time.Time
}

// Name returns the wheel filename.
func (e Entry) Name() string {
	return e.Wheel.Filename
}

// Snapshot is the set of wheel filenames present at a point in time.
type Snapshot map[string]struct{}

// Cache is a flat directory of wheel files shared between bootstrap runs.
// Entries are created by pip download or Add and never rewritten.
type Cache struct {
	dir    string
	logger *slog.Logger
	lock   *flock.Flock
}

// Open returns a cache rooted at dir, creating the directory when missing.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{
		dir:    abs,
		logger: logging.NewComponentLogger(logger, "wheelcache"),
		lock:   flock.New(filepath.Join(abs, lockFileName)),
	}, nil
}

// Dir returns the absolute cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Lock takes the advisory cache lock without blocking. The returned function
// releases it.
func (c *Cache) Lock() (func(), error) {
	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", c.dir, ErrLocked)
	}
	return func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("release cache lock failed", logging.Error(err))
		}
	}, nil
}

// Lookup returns the first cached wheel, in filename order, that satisfies
// the artifact's derived cache filename.
func (c *Cache) Lookup(art artifact.Artifact) (Entry, bool, error) {
	if !art.HasCacheName() {
		return Entry{}, false, nil
	}
	candidates, err := c.Candidates(art)
	if err != nil || len(candidates) == 0 {
		return Entry{}, false, err
	}
	return candidates[0], true, nil
}

// Candidates returns every cached wheel for the artifact in filename order.
// Exact pins must match the derived cache filename; other specifiers match on
// project name. A cache shared between interpreters can hold one wheel per
// tag, so more than one candidate means the filename alone cannot decide.
func (c *Cache) Candidates(art artifact.Artifact) ([]Entry, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, entry := range entries {
		if matchesArtifact(art, entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func matchesArtifact(art artifact.Artifact, entry Entry) bool {
	if art.HasCacheName() {
		return art.MatchesWheel(entry.Name())
	}
	return entry.Wheel.CanonicalName() == art.CanonicalName()
}

// Snapshot records the wheel filenames currently in the cache.
func (c *Cache) Snapshot() (Snapshot, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(entries))
	for _, entry := range entries {
		snap[entry.Name()] = struct{}{}
	}
	return snap, nil
}

// SelectFetched picks the artifact's wheel after a download into the cache.
// Newly present wheels win; a wheel that was already present is accepted
// because pip skips files it has downloaded before. Range specifiers are
// matched on project name only since pip has already applied them.
func (c *Cache) SelectFetched(art artifact.Artifact, before Snapshot) (Entry, bool, error) {
	candidates, err := c.Candidates(art)
	if err != nil {
		return Entry{}, false, err
	}
	for _, entry := range candidates {
		if _, seen := before[entry.Name()]; !seen {
			return entry, true, nil
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true, nil
	}
	return Entry{}, false, nil
}

// List returns every wheel in the cache sorted by filename. Files that are not
// valid wheel filenames are ignored.
func (c *Cache) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache directory: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		wheel, err := artifact.ParseWheelFilename(de.Name())
		if err != nil {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(c.dir, de.Name()),
			Wheel:   wheel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Add copies a wheel into the cache with size and hash verification. An entry
// with the same filename is left untouched.
func (c *Cache) Add(src string) (Entry, error) {
	name := filepath.Base(src)
	wheel, err := artifact.ParseWheelFilename(name)
	if err != nil {
		return Entry{}, err
	}
	dst := filepath.Join(c.dir, name)
	if info, err := os.Stat(dst); err == nil {
		c.logger.Info("wheel already cached", logging.String("path", dst))
		return Entry{Path: dst, Wheel: wheel, Size: info.Size(), ModTime: info.ModTime()}, nil
	}

	tmp := dst + ".partial"
	digest, err := fileutil.CopyFileVerified(src, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return Entry{}, fmt.Errorf("copy %s into cache: %w", name, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return Entry{}, fmt.Errorf("finalize cached wheel: %w", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return Entry{}, fmt.Errorf("stat cached wheel: %w", err)
	}
	c.logger.Info("wheel added to cache",
		logging.String(logging.FieldEventType, "cache_add"),
		logging.String("path", dst),
		logging.Int64("size_bytes", info.Size()),
		logging.String("sha256", digest))
	return Entry{Path: dst, Wheel: wheel, Size: info.Size(), ModTime: info.ModTime()}, nil
}
