// Package session persists a dashboard snapshot for the opt-in "keep data in
// this session" toggle. Stores are local by construction: the memory store
// lives as long as the process (one browser tab or CLI run) and the bolt
// store is a file on the user's own disk. Nothing here talks to the network.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/probe"
)

// Fixed storage keys.
const (
	KeyData    = "dashboard-data"
	KeyColumns = "dashboard-columns"
	KeyCharts  = "dashboard-charts"
)

// ErrCorrupt is returned when a stored value fails its checksum.
var ErrCorrupt = errors.New("session: stored value is corrupt")

// Snapshot is everything restored when the user comes back.
type Snapshot struct {
	Dataset dataset.Dataset        `json:"dataset"`
	Columns probe.Columns          `json:"columns"`
	Charts  []charts.Configuration `json:"charts"`
}

// Store is the injected persistence capability.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load reports ok=false when nothing has been saved.
	Load(ctx context.Context) (s Snapshot, ok bool, err error)
	Clear(ctx context.Context) error
}

// envelope guards a stored value with an xxh3 checksum so a truncated or
// hand-edited entry is detected instead of half-restored.
type envelope struct {
	Sum  string          `json:"sum"`
	Data json.RawMessage `json:"data"`
}

func seal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Sum: strconv.FormatUint(xxh3.Hash(data), 16), Data: data})
}

func open(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if strconv.FormatUint(xxh3.Hash(env.Data), 16) != env.Sum {
		return ErrCorrupt
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// encode splits a snapshot into its keyed, sealed parts.
func encode(s Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		KeyData:    s.Dataset,
		KeyColumns: s.Columns,
		KeyCharts:  s.Charts,
	}
	out := make(map[string][]byte, len(parts))
	for k, v := range parts {
		b, err := seal(v)
		if err != nil {
			return nil, fmt.Errorf("session: encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

// decode rebuilds a snapshot; get returns nil for absent keys.
func decode(get func(key string) []byte) (Snapshot, bool, error) {
	var s Snapshot
	raw := get(KeyData)
	if raw == nil {
		return Snapshot{}, false, nil
	}
	if err := open(raw, &s.Dataset); err != nil {
		return Snapshot{}, false, fmt.Errorf("%s: %w", KeyData, err)
	}
	if raw := get(KeyColumns); raw != nil {
		if err := open(raw, &s.Columns); err != nil {
			return Snapshot{}, false, fmt.Errorf("%s: %w", KeyColumns, err)
		}
	} else {
		s.Columns = probe.Profile(s.Dataset)
	}
	if raw := get(KeyCharts); raw != nil {
		if err := open(raw, &s.Charts); err != nil {
			return Snapshot{}, false, fmt.Errorf("%s: %w", KeyCharts, err)
		}
	}
	return s, true, nil
}
