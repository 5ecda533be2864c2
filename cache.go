package xsdtree

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentflare-ai/go-xmldom"
	"github.com/sirupsen/logrus"
)

// SchemaCache loads each schema file at most once. It is safe for concurrent
// use; the cached schemas are immutable.
type SchemaCache struct {
	mu       sync.RWMutex
	schemas  map[string]*schemaEntry
	BasePath string // Base path for resolving relative schema locations
	Logger   *logrus.Entry
}

// schemaEntry holds a schema and its loader
type schemaEntry struct {
	once   sync.Once
	schema *Schema
	err    error
}

// NewSchemaCache creates a new schema cache
func NewSchemaCache(basePath string) *SchemaCache {
	return &SchemaCache{
		schemas:  make(map[string]*schemaEntry),
		BasePath: basePath,
		Logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
}

// SetBasePath sets the base path for resolving relative schema locations
func (sc *SchemaCache) SetBasePath(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.BasePath = path
}

// Get returns the schema at location, loading it on first use. A failed load
// is cached as well; Remove the entry to retry.
func (sc *SchemaCache) Get(location string) (*Schema, error) {
	resolvedPath := sc.resolvePath(location)

	sc.mu.RLock()
	entry, exists := sc.schemas[resolvedPath]
	sc.mu.RUnlock()

	if !exists {
		sc.mu.Lock()
		if entry, exists = sc.schemas[resolvedPath]; !exists {
			entry = &schemaEntry{}
			sc.schemas[resolvedPath] = entry
		}
		sc.mu.Unlock()
	}

	entry.once.Do(func() {
		entry.schema, entry.err = sc.loadSchema(resolvedPath)
		if entry.err != nil {
			sc.Logger.WithField("location", resolvedPath).WithError(entry.err).Warn("failed to load schema")
		}
	})
	return entry.schema, entry.err
}

// Put caches a schema parsed by the caller under location.
func (sc *SchemaCache) Put(location string, schema *Schema) {
	entry := &schemaEntry{schema: schema}
	entry.once.Do(func() {})

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.schemas[sc.resolvePathLocked(location)] = entry
}

// Clear removes all cached schemas
func (sc *SchemaCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.schemas = make(map[string]*schemaEntry)
}

// Remove removes a specific schema from cache
func (sc *SchemaCache) Remove(location string) {
	resolvedPath := sc.resolvePath(location)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.schemas, resolvedPath)
}

// Len returns the number of cached entries, including failed loads.
func (sc *SchemaCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.schemas)
}

func (sc *SchemaCache) resolvePath(location string) string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.resolvePathLocked(location)
}

// resolvePathLocked resolves a schema location to an absolute path
func (sc *SchemaCache) resolvePathLocked(location string) string {
	if filepath.IsAbs(location) {
		return location
	}
	if sc.BasePath != "" {
		return filepath.Join(sc.BasePath, location)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return location
	}
	return abs
}

// loadSchema loads a schema from disk
func (sc *SchemaCache) loadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	if err := CheckSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid XSD schema %s: %w", path, err)
	}

	schema, err := Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XSD schema %s: %w", path, err)
	}

	log := sc.Logger.WithFields(logrus.Fields{
		"location": path,
		"elements": len(schema.ElementDecls),
		"types":    len(schema.TypeDefs),
	})
	for _, imp := range schema.Imports {
		log.WithField("namespace", imp.Namespace).Debug("import not followed")
	}
	log.Debug("schema loaded")

	return schema, nil
}
