package session

import (
	"context"
	"sync"
)

// MemoryStore is tab-scoped storage: it lives exactly as long as its owner.
// Values are held in encoded form so a restore is verbatim and never aliases
// the caller's live state.
type MemoryStore struct {
	mu   sync.Mutex
	vals map[string][]byte
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{vals: map[string][]byte{}} }

func (m *MemoryStore) Save(ctx context.Context, s Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parts, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range parts {
		m.vals[k] = v
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(func(k string) []byte { return m.vals[k] })
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.vals)
	return nil
}

// Keys lists what is currently stored; used by tests and the CLI.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.vals))
	for _, k := range []string{KeyData, KeyColumns, KeyCharts} {
		if _, ok := m.vals[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
