package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"

	apperrors "ramadantracker.app/errors"
	"ramadantracker.app/models"
)

// MemoryStore is an in-memory subscription store used by tests and local
// runs. It keeps raw serialized bytes, like the durable backends, so corrupt
// record handling behaves identically.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Put stores the JSON-serialized record, replacing any prior record in full.
func (m *MemoryStore) Put(ctx context.Context, sub *models.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return apperrors.NewDatabaseError("marshal subscription", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Key(sub.Endpoint)] = data
	return nil
}

// PutRaw stores arbitrary bytes under an endpoint's key. Tests use it to
// simulate corrupted records.
func (m *MemoryStore) PutRaw(endpoint string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Key(endpoint)] = data
}

// Get retrieves a subscription by endpoint; (nil, nil) when missing, a
// corrupt-record error when the stored bytes do not parse.
func (m *MemoryStore) Get(ctx context.Context, endpoint string) (*models.Subscription, error) {
	m.mu.RLock()
	data, ok := m.data[Key(endpoint)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var sub models.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, apperrors.NewCorruptRecordError("unparseable subscription record", err)
	}
	return &sub, nil
}

// Delete removes a subscription by endpoint. Deleting a missing key is a no-op.
func (m *MemoryStore) Delete(ctx context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, Key(endpoint))
	return nil
}

// List returns up to limit endpoints in sorted order starting at the offset
// encoded in cursor, plus the cursor for the next page.
func (m *MemoryStore) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", apperrors.NewDatabaseError("invalid list cursor", err)
		}
		offset = parsed
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	if offset >= len(keys) {
		return nil, "", nil
	}

	end := offset + limit
	if end > len(keys) {
		end = len(keys)
	}

	endpoints := make([]string, 0, end-offset)
	for _, k := range keys[offset:end] {
		endpoints = append(endpoints, strings.TrimPrefix(k, keyPrefix))
	}

	next := ""
	if end < len(keys) {
		next = strconv.Itoa(end)
	}
	return endpoints, next, nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
