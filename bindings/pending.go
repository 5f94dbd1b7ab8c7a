package bindings

import (
	"maps"
	"time"
)

// Tables below this peak are never rebuilt.
const minShrinkPeak = 64

type (
	pendingRequest struct {
		responder MessageReceiver
		ordinal   uint32
		sentAt    time.Time
	}

	// pendingTable maps in-flight request ids to their responders. Go maps
	// never release buckets, so the table is rebuilt once it has drained to
	// a quarter of its peak.
	pendingTable struct {
		data map[uint64]pendingRequest
		peak int
	}
)

func newPendingTable() *pendingTable {
	return &pendingTable{data: make(map[uint64]pendingRequest)}
}

func (t *pendingTable) Has(id uint64) bool {
	_, ok := t.data[id]
	return ok
}

func (t *pendingTable) Set(id uint64, p pendingRequest) {
	t.data[id] = p
	if len(t.data) > t.peak {
		t.peak = len(t.data)
	}
}

// Take removes and returns the entry for id.
func (t *pendingTable) Take(id uint64) (pendingRequest, bool) {
	p, ok := t.data[id]
	if !ok {
		return p, false
	}
	delete(t.data, id)

	if t.peak >= minShrinkPeak && len(t.data) < t.peak/4 {
		t.shrink()
	}
	return p, true
}

func (t *pendingTable) shrink() {
	data := make(map[uint64]pendingRequest, len(t.data))
	maps.Copy(data, t.data)
	t.data = data
	t.peak = len(t.data)
}

func (t *pendingTable) Len() int {
	return len(t.data)
}

// Drain empties the table and returns what it held.
func (t *pendingTable) Drain() []pendingRequest {
	out := make([]pendingRequest, 0, len(t.data))
	for _, p := range t.data {
		out = append(out, p)
	}
	t.data = make(map[uint64]pendingRequest)
	t.peak = 0
	return out
}
