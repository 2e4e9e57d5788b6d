package viewer

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Asset file names inside a viewer template.
const (
	HTMLFile     = "index.html"
	CSSFile      = "index.css"
	JSFile       = "index.js"
	SettingsFile = "settings.json"
	SceneFile    = "scene.compressed.ply"
)

// ErrAssetNotFound is returned when no layer provides an asset.
var ErrAssetNotFound = errors.New("viewer asset not found")

//go:embed template
var embedded embed.FS

// Assets are the static viewer files. Their content is opaque apart from
// the link and script tags the HTML package inlines.
type Assets struct {
	HTML []byte
	CSS  []byte
	JS   []byte
}

// Store resolves viewer assets from layered file systems.
type Store struct {
	layers []fs.FS
	cache  *Cache
	mu     sync.RWMutex
}

// NewStore creates a store backed by the built-in template.
func NewStore() *Store {
	sub, err := fs.Sub(embedded, "template")
	if err != nil {
		panic(err)
	}
	return &Store{
		layers: []fs.FS{sub},
		cache:  NewCache(),
	}
}

// AddDir adds a directory of assets. Layers are searched in reverse order
// (last added = highest priority).
func (s *Store) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("opening asset dir %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening asset dir %s: not a directory", path)
	}
	s.AddFS(os.DirFS(path))
	return nil
}

// AddFS adds a file system layer and drops cached lookups.
func (s *Store) AddFS(fsys fs.FS) {
	s.mu.Lock()
	s.layers = append(s.layers, fsys)
	s.mu.Unlock()
	s.cache.Clear()
}

// Load returns the named asset from the highest priority layer holding it.
func (s *Store) Load(name string) ([]byte, error) {
	if data, ok := s.cache.Get(name); ok {
		return data, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.layers) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(s.layers[i], name)
		if err == nil {
			s.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
}

// Assets loads the HTML, CSS and JS files.
func (s *Store) Assets() (Assets, error) {
	var a Assets
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{HTMLFile, &a.HTML},
		{CSSFile, &a.CSS},
		{JSFile, &a.JS},
	} {
		data, err := s.Load(f.name)
		if err != nil {
			return Assets{}, err
		}
		*f.dst = data
	}
	return a, nil
}

// CacheStats returns cache hits and misses.
func (s *Store) CacheStats() (hits, misses int) {
	return s.cache.Stats()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
