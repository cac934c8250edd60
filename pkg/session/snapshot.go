package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/graphscope/pkg/deadcode"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/insights"
	"github.com/matzehuels/graphscope/pkg/portable"
)

// Snapshot is the persisted form of a [Session]. Derived results are not
// stored; they are recomputed on demand after a restore.
type Snapshot struct {
	ID          string                          `json:"id"`
	CreatedAt   time.Time                       `json:"created_at"`
	ExpiresAt   time.Time                       `json:"expires_at"`
	Calls       portable.Graph                  `json:"calls"`
	Deps        portable.Graph                  `json:"deps"`
	Usages      []deadcode.Usage                `json:"usages,omitempty"`
	Metrics     map[string]insights.FileMetrics `json:"metrics,omitempty"`
	Resolutions []cycles.Suggestion             `json:"resolutions,omitempty"`
}

// Snapshot captures the current state of s.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Snapshot{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
		Calls:       portable.From(s.calls.Graph),
		Deps:        portable.From(s.deps.Graph),
		Usages:      s.usages,
		Metrics:     s.metrics,
		Resolutions: append([]cycles.Suggestion(nil), s.resolutions...),
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(snap *Snapshot) (*Session, error) {
	calls, err := portable.ToCallGraph(snap.Calls)
	if err != nil {
		return nil, fmt.Errorf("restore call graph: %w", err)
	}
	deps, err := portable.ToDependencyGraph(snap.Deps)
	if err != nil {
		return nil, fmt.Errorf("restore dependency graph: %w", err)
	}
	calls.Freeze()
	deps.Freeze()

	metrics := snap.Metrics
	if metrics == nil {
		metrics = map[string]insights.FileMetrics{}
	}
	return &Session{
		ID:          snap.ID,
		CreatedAt:   snap.CreatedAt,
		ExpiresAt:   snap.ExpiresAt,
		calls:       calls,
		deps:        deps,
		usages:      snap.Usages,
		metrics:     metrics,
		resolutions: snap.Resolutions,
	}, nil
}

func encodeSnapshot(s *Session) ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

func decodeSnapshot(data []byte) (*Session, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return Restore(&snap)
}
