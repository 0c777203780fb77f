package blobstore

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps catalog documents in process memory. It backs tests and
// the "memory" catalog backend, where a host seeds the snapshot at startup.
//
// Stored bytes are never mutated: Put copies its input and replaces the
// entry, so open blobs share the buffer without copying. A blob whose entry
// was replaced or deleted fails further reads with ErrChanged.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	names   []string // sorted
}

type memoryEntry struct {
	data []byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Open returns a handle to the current version of name.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{store: m, name: name, entry: e}, nil
}

// Put stores a copy of data under name.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := &memoryEntry{data: append([]byte(nil), data...)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		i := sort.SearchStrings(m.names, name)
		m.names = append(m.names, "")
		copy(m.names[i+1:], m.names[i:])
		m.names[i] = name
	}
	m.entries[name] = e
	return nil
}

// Delete removes name. Missing names are ignored.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return nil
	}
	delete(m.entries, name)
	i := sort.SearchStrings(m.names, name)
	m.names = append(m.names[:i], m.names[i+1:]...)
	return nil
}

// List returns the names starting with prefix in lexical order.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, name := range m.names[sort.SearchStrings(m.names, prefix):] {
		if !strings.HasPrefix(name, prefix) {
			break
		}
		out = append(out, name)
	}
	return out, nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

func (m *MemoryStore) current(name string, e *memoryEntry) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[name] == e
}

type memoryBlob struct {
	store *MemoryStore
	name  string
	entry *memoryEntry
}

func (b *memoryBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !b.store.current(b.name, b.entry) {
		return 0, ErrChanged
	}
	data := b.entry.data
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *memoryBlob) Close() error { return nil }

func (b *memoryBlob) Size() int64 { return int64(len(b.entry.data)) }
