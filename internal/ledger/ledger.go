// Package ledger keeps a tamper-evident, hash-chained log of marketplace
// events: swap lifecycle changes, ratings and skill maintenance.
//
// The chain starts with a genesis entry whose Hash is GenesisHash. Each later
// entry stores the hash of its predecessor, so editing or removing a row is
// detected by Verify.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the fixed hash of entry 0.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SystemActor is recorded for entries not caused by a user request.
const SystemActor = "skillswap-system"

// Actions recorded by the marketplace services.
const (
	ActionGenesis       = "genesis"
	ActionSwapRequested = "swap.requested"
	ActionSwapStatus    = "swap.status_changed"
	ActionSwapDeleted   = "swap.deleted"
	ActionSwapProgress  = "swap.progress"
	ActionSwapCompleted = "swap.completed"
	ActionRatingCreated = "rating.created"
	ActionSkillApproval = "skill.approval"
	ActionSkillsMerged  = "skill.merged"
)

// Entry is one record in the chain.
type Entry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// Ledger is an append-only audit chain.
type Ledger interface {
	// Append chains a new entry after the current tip. payload is
	// JSON-encoded and only its SHA-256 is kept.
	Append(ctx context.Context, subject, action, actor string, payload any) (*Entry, error)
	Get(ctx context.Context, index int) (*Entry, error)
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]*Entry, error)
	Len(ctx context.Context) (int, error)
	// Verify walks the chain and returns nil when every link holds.
	Verify(ctx context.Context) error
	Root(ctx context.Context) (string, error)
}

// SwapSubject names a swap in ledger entries.
func SwapSubject(id int64) string { return fmt.Sprintf("swap:%d", id) }

// SkillSubject names a skill in ledger entries.
func SkillSubject(id int64) string { return fmt.Sprintf("skill:%d", id) }

// UserActor names a user acting on the marketplace.
func UserActor(id int64) string { return fmt.Sprintf("user:%d", id) }

func hashEntry(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.Subject, e.Action, e.Actor, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// checkLink validates curr against its predecessor. prev is nil for entry 0.
func checkLink(prev, curr *Entry) error {
	if prev == nil {
		if curr.Hash != GenesisHash {
			return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
		}
		return nil
	}
	if curr.Index != prev.Index+1 {
		return fmt.Errorf("gap in chain between index %d and %d", prev.Index, curr.Index)
	}
	if curr.PrevHash != prev.Hash {
		return fmt.Errorf("hash chain broken at index %d", curr.Index)
	}
	if curr.Hash != hashEntry(curr) {
		return fmt.Errorf("entry %d has invalid hash", curr.Index)
	}
	return nil
}
