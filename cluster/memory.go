package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/happyfish100/fdfs-batch/model"
)

var _ Provider = (*Memory)(nil)

// Memory is an in-process cluster used by tests and dry-run rehearsal.
// It implements the full Provider/Conn surface over a map and records
// call counts so tests can assert on connection and mutation behavior.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*memObject
	nextSeq int

	// FailAttributes makes FetchAttributes fail for specific ids.
	FailAttributes map[string]error
	// FailDelete makes Delete fail for specific ids.
	FailDelete map[string]error

	// Call counters.
	Connects  int
	Deletes   int
	Uploads   int
	SetMetas  int
	Downloads int
}

type memObject struct {
	data      []byte
	createdAt time.Time
	lastAcc   time.Time
	meta      map[string]string
}

// NewMemory creates an empty in-process cluster.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*memObject)}
}

// Put seeds an object. Metadata may be nil.
func (m *Memory) Put(id string, data []byte, createdAt time.Time, meta map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]string, len(meta))
	for k, v := range meta {
		cp[k] = v
	}
	m.objects[id] = &memObject{data: append([]byte(nil), data...), createdAt: createdAt, meta: cp}
}

// SetLastAccessed sets the access-time hint of a seeded object.
func (m *Memory) SetLastAccessed(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.objects[id]; ok {
		o.lastAcc = t
	}
}

// Exists reports whether the object is currently stored.
func (m *Memory) Exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok
}

// Object returns a copy of the stored content, or nil.
func (m *Memory) Object(id string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.objects[id]; ok {
		return append([]byte(nil), o.data...)
	}
	return nil
}

// Metadata returns a copy of the stored metadata map, or nil.
func (m *Memory) Metadata(id string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[id]
	if !ok {
		return nil
	}
	cp := make(map[string]string, len(o.meta))
	for k, v := range o.meta {
		cp[k] = v
	}
	return cp
}

// Count returns the number of stored objects.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *Memory) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	m.mu.Lock()
	m.Connects++
	m.mu.Unlock()
	return &memConn{cluster: m}, nil
}

func (m *Memory) Close() error { return nil }

type memConn struct {
	cluster *Memory
}

func (c *memConn) Close() error { return nil }

func (c *memConn) FetchAttributes(ctx context.Context, id string) (*model.Attributes, error) {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailAttributes[id]; ok {
		return nil, err
	}
	o, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &model.Attributes{
		Size:           int64(len(o.data)),
		CreatedAt:      o.createdAt,
		LastAccessedAt: o.lastAcc,
		Checksum:       ContentHash(o.data),
	}, nil
}

func (c *memConn) FetchMetadata(ctx context.Context, id string) (map[string]string, error) {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := make(map[string]string, len(o.meta))
	for k, v := range o.meta {
		cp[k] = v
	}
	return cp, nil
}

func (c *memConn) Delete(ctx context.Context, id string) error {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailDelete[id]; ok {
		return err
	}
	if _, ok := m.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.objects, id)
	m.Deletes++
	return nil
}

func (c *memConn) Download(ctx context.Context, id string) ([]byte, error) {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.Downloads++
	return append([]byte(nil), o.data...), nil
}

func (c *memConn) Upload(ctx context.Context, data []byte, group string) (string, error) {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	if group == "" {
		group = "group1"
	}
	m.nextSeq++
	id := fmt.Sprintf("%s/M00/00/00/obj%06d", group, m.nextSeq)
	m.objects[id] = &memObject{
		data:      append([]byte(nil), data...),
		createdAt: time.Now(),
		meta:      make(map[string]string),
	}
	m.Uploads++
	return id, nil
}

func (c *memConn) SetMetadata(ctx context.Context, id string, meta map[string]string, mode MetadataMode) error {
	m := c.cluster
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if mode == MetadataOverwrite {
		o.meta = make(map[string]string, len(meta))
	}
	for k, v := range meta {
		o.meta[k] = v
	}
	m.SetMetas++
	return nil
}
