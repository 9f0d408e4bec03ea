package assrt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"subplay/internal/logging"
)

// CacheEntry captures metadata about a cached payload. Download URLs are
// single use and deliberately absent.
type CacheEntry struct {
	ID       string    `json:"id"`
	FileName string    `json:"file_name"`
	Language string    `json:"language,omitempty"`
	Format   string    `json:"format,omitempty"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// CacheResult represents a cache hit including the subtitle payload.
type CacheResult struct {
	Entry CacheEntry
	Data  []byte
	Path  string
}

// Cache persists downloaded payloads locally to avoid repeat downloads.
// Writes are serialized across processes with a lock file in the cache dir;
// mu covers goroutines of this process, which share one flock handle.
type Cache struct {
	dir    string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *slog.Logger
}

// NewCache initialises a cache rooted at dir.
func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, ".lock")),
		logger: logging.NewComponentLogger(logger, "assrt-cache"),
	}, nil
}

// Dir exposes the backing directory for inspection.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Load returns the cached payload for id and fileName when present.
func (c *Cache) Load(id, fileName string) (CacheResult, bool, error) {
	if c == nil {
		return CacheResult{}, false, errors.New("cache unavailable")
	}
	key, err := cacheKey(id, fileName)
	if err != nil {
		return CacheResult{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lock.RLock(); err != nil {
		return CacheResult{}, false, fmt.Errorf("lock cache: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()

	dataPath := c.dataPath(key)
	data, err := os.ReadFile(dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CacheResult{}, false, nil
		}
		return CacheResult{}, false, fmt.Errorf("read cache data: %w", err)
	}
	metaBytes, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// data without metadata is a torn write; treat as miss
			return CacheResult{}, false, nil
		}
		return CacheResult{}, false, fmt.Errorf("read cache metadata: %w", err)
	}
	var entry CacheEntry
	if err := json.Unmarshal(metaBytes, &entry); err != nil {
		return CacheResult{}, false, fmt.Errorf("decode cache metadata: %w", err)
	}
	return CacheResult{Entry: entry, Data: data, Path: dataPath}, true, nil
}

// Store writes the supplied payload into the cache and returns the data path.
func (c *Cache) Store(entry CacheEntry, data []byte) (string, error) {
	if c == nil {
		return "", errors.New("cache unavailable")
	}
	key, err := cacheKey(entry.ID, entry.FileName)
	if err != nil {
		return "", err
	}
	entry.ID = strings.TrimSpace(entry.ID)
	entry.FileName = strings.TrimSpace(entry.FileName)
	entry.Language = strings.TrimSpace(entry.Language)
	entry.Size = len(data)
	entry.StoredAt = time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lock.Lock(); err != nil {
		return "", fmt.Errorf("lock cache: %w", err)
	}
	defer func() { _ = c.lock.Unlock() }()

	dataPath := c.dataPath(key)
	if err := writeFileAtomic(dataPath, data, 0o644); err != nil {
		return "", err
	}
	metaBytes, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeFileAtomic(c.metaPath(key), metaBytes, 0o644); err != nil {
		return "", err
	}
	c.logger.Debug("subtitle cache stored",
		logging.String("id", entry.ID),
		logging.String("file", entry.FileName),
		logging.String("path", dataPath),
	)
	return dataPath, nil
}

func cacheKey(id, fileName string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("invalid subtitle id")
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("invalid subtitle id %q", id)
		}
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(fileName)))
	return id + "-" + hex.EncodeToString(sum[:8]), nil
}

func (c *Cache) dataPath(key string) string {
	return filepath.Join(c.dir, key+".sub")
}

func (c *Cache) metaPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
