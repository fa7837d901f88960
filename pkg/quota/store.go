package quota

import "sync"

// AnonymousCaller is the shared bucket key for requests without a caller
// identity. Mapping happens inside the store so the one-record-per-key
// invariant holds without special cases elsewhere.
const AnonymousCaller = "anonymous"

// Store holds usage records for all callers behind a single mutex.
//
// The store is an explicit object injected into the Tracker at construction
// rather than package-level state, so tests can use isolated stores. One
// mutex guards the whole map: Evaluate's read-modify-write of a record is a
// single critical section, and Sweep holds the same lock, so a record can
// never be removed while it is being evaluated.
type Store struct {
	mu      sync.Mutex
	records map[string]*UsageRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*UsageRecord),
	}
}

// bucketKey maps a caller identity to its record key.
func bucketKey(callerID string) string {
	if callerID == "" {
		return AnonymousCaller
	}
	return callerID
}

// getOrCreate returns the record for a caller, creating a zero-valued record
// on first use. Caller must hold s.mu.
func (s *Store) getOrCreate(callerID string) *UsageRecord {
	key := bucketKey(callerID)
	rec, ok := s.records[key]
	if !ok {
		rec = &UsageRecord{CallerID: key}
		s.records[key] = rec
	}
	return rec
}

// get returns the record for a caller without creating one.
// Caller must hold s.mu.
func (s *Store) get(callerID string) (*UsageRecord, bool) {
	rec, ok := s.records[bucketKey(callerID)]
	return rec, ok
}

// Len returns the number of tracked callers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
