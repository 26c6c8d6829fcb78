package ingest

import (
	"sync"

	"homebroker/internal/adapter"
)

// queue buffers pushed records until the pipeline swaps them out.
// Producers only ever hold the lock for an append.
type queue struct {
	mu      sync.Mutex
	records []adapter.RawRecord
}

func (q *queue) push(records ...adapter.RawRecord) {
	if len(records) == 0 {
		return
	}

	q.mu.Lock()
	q.records = append(q.records, records...)
	q.mu.Unlock()
}

// swap hands back every buffered record and leaves the queue empty.
func (q *queue) swap() []adapter.RawRecord {
	q.mu.Lock()
	records := q.records
	q.records = nil
	q.mu.Unlock()

	return records
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// dedup keeps the last record per symbol and settlement code, in the order each
// key was first seen.
func dedup(records []adapter.RawRecord) ([]adapter.RawRecord, error) {
	pos := make(map[string]int, len(records))
	unique := make([]adapter.RawRecord, 0, len(records))
	for _, rec := range records {
		key, err := rec.Key()
		if err != nil {
			return nil, err
		}
		if i, ok := pos[key]; ok {
			unique[i] = rec
			continue
		}
		pos[key] = len(unique)
		unique = append(unique, rec)
	}
	return unique, nil
}
