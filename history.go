package execguard

import (
	"sync"
	"time"
)

// defaultHistoryLimit bounds the in-memory audit ring.
const defaultHistoryLimit = 1000

// AuditRecord is one classify→decide→execute cycle. Records are created at
// the end of every invocation, never mutated afterwards, and destroyed only
// by ring eviction or an explicit clear.
type AuditRecord struct {
	// Seq is a monotonic sequence number. It keeps increasing across
	// eviction and clear, so gaps reveal evicted records.
	Seq uint64

	// Command is the original command string as submitted by the caller.
	Command string

	// Outcome is the full decision and execution trail.
	Outcome ExecutionOutcome

	// CreatedAt is the time the record was appended.
	CreatedAt time.Time
}

// AuditSink receives every audit record for external persistence. The ring
// is authoritative for History() queries; a sink is a write-only fan-out.
// Implementations must be safe for concurrent use.
type AuditSink interface {
	Record(rec AuditRecord) error
}

// auditHistory is the bounded, append-only in-memory audit log. It is the
// only mutable state shared between concurrent invocations, so every access
// goes through the mutex; eviction happens under the same lock as append.
type auditHistory struct {
	mu      sync.Mutex
	records []AuditRecord
	limit   int
	nextSeq uint64
}

func newAuditHistory(limit int) *auditHistory {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &auditHistory{limit: limit}
}

// append creates a record for the outcome and stores it, evicting the oldest
// record when the ring is full. The finished record is returned so it can be
// fanned out to a sink without re-locking.
func (h *auditHistory) append(command string, outcome ExecutionOutcome) AuditRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	rec := AuditRecord{
		Seq:       h.nextSeq,
		Command:   command,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	h.records = append(h.records, rec)
	if len(h.records) > h.limit {
		// Drop the oldest; copy to keep the backing array from pinning
		// evicted records.
		h.records = append(h.records[:0:0], h.records[1:]...)
	}
	return rec
}

// list returns up to limit of the most recent records, oldest first.
// limit <= 0 returns everything. The result is a copy; callers cannot reach
// the ring's backing storage.
func (h *auditHistory) list(limit int) []AuditRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]AuditRecord, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// clear drops all records. Sequence numbering continues where it left off.
func (h *auditHistory) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
