// Package testsupport holds shared fakes and fixture builders for the test
// suites: a recording cache backend with injectable failures and canned
// account documents.
package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/hanlinkhaing/accountd/account"
	"github.com/hanlinkhaing/accountd/cache"
)

// RecordingCache implements cache.QueryCache in memory while counting every
// backend call, so tests can assert on hits, misses, stores and namespace
// drops. Setting FailGets/FailSets/FailExists/FailDeletes simulates a broken
// backend.
type RecordingCache struct {
	mu      sync.Mutex
	entries map[string]map[string][]byte

	Gets    int
	Hits    int
	Sets    int
	Deletes int

	FailGets    error
	FailSets    error
	FailExists  error
	FailDeletes error
}

// NewRecordingCache creates an empty recording cache.
func NewRecordingCache() *RecordingCache {
	return &RecordingCache{entries: make(map[string]map[string][]byte)}
}

func (r *RecordingCache) HashGet(_ context.Context, namespace, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Gets++
	if r.FailGets != nil {
		return nil, false, r.FailGets
	}
	ns, ok := r.entries[namespace]
	if !ok {
		return nil, false, nil
	}
	value, ok := ns[key]
	if !ok {
		return nil, false, nil
	}
	r.Hits++
	return value, true, nil
}

func (r *RecordingCache) HashSet(_ context.Context, namespace, key string, value []byte, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sets++
	if r.FailSets != nil {
		return r.FailSets
	}
	ns, ok := r.entries[namespace]
	if !ok {
		ns = make(map[string][]byte)
		r.entries[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (r *RecordingCache) Exists(_ context.Context, namespace string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailExists != nil {
		return false, r.FailExists
	}
	return len(r.entries[namespace]) > 0, nil
}

func (r *RecordingCache) DeleteNamespace(_ context.Context, namespace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Deletes++
	if r.FailDeletes != nil {
		return r.FailDeletes
	}
	delete(r.entries, namespace)
	return nil
}

// Len returns the number of entries under the namespace.
func (r *RecordingCache) Len(namespace string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[namespace])
}

var _ cache.QueryCache = (*RecordingCache)(nil)

// NewCustomer builds a plausible persisted customer for tests.
func NewCustomer(id int64, username string) account.Customer {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return account.Customer{
		CustomerID:           id,
		User:                 username,
		Email:                username,
		Fullname:             "Tester",
		Phone:                "99887766",
		Credit:               "100",
		CreatedOnMobiDesktop: "MOBI",
		DateCreated:          now,
		LastLogin:            now,
	}
}

// NewRegisterInput builds a valid registration payload for tests.
func NewRegisterInput(username string) account.RegisterInput {
	return account.RegisterInput{
		TxtUser:       username,
		TxtPass:       "hunter22",
		TxtPassRepeat: "hunter22",
		TxtName:       "Tester01",
		TxtPhone:      "99887766",
	}
}
