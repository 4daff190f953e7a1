package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryLedger keeps the chain in process memory. It backs tests and
// deployments without a database.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemory returns a MemoryLedger holding only the genesis entry.
func NewMemory() *MemoryLedger {
	return &MemoryLedger{entries: []*Entry{{
		Timestamp: time.Now().UTC(),
		Action:    ActionGenesis,
		Actor:     SystemActor,
		DataHash:  GenesisHash,
		PrevHash:  GenesisHash,
		Hash:      GenesisHash,
	}}}
}

func (l *MemoryLedger) Append(_ context.Context, subject, action, actor string, payload any) (*Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.entries[len(l.entries)-1]
	e := &Entry{
		Index:     tip.Index + 1,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Action:    action,
		Actor:     actor,
		DataHash:  sha256Hex(data),
		PrevHash:  tip.Hash,
	}
	e.Hash = hashEntry(e)
	l.entries = append(l.entries, e)
	return e, nil
}

func (l *MemoryLedger) Get(_ context.Context, index int) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	return l.entries[index], nil
}

func (l *MemoryLedger) Recent(_ context.Context, n int) ([]*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries), nil
}

func (l *MemoryLedger) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var prev *Entry
	for _, curr := range l.entries {
		if err := checkLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return nil
}

func (l *MemoryLedger) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[len(l.entries)-1].Hash, nil
}
