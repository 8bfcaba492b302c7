package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/auth"
	"saadSocialAPI/internal/store/memory"
)

func newTestService(t *testing.T) (*DataService, *memory.Store) {
	t.Helper()
	backend := memory.New()
	t.Cleanup(func() { backend.Close() })
	provider := auth.NewLocal("test-secret", time.Hour).WithCost(bcrypt.MinCost)
	return NewDataService(backend, provider), backend
}

// steppingClock returns strictly increasing times, one millisecond apart.
func steppingClock() func() time.Time {
	var tick atomic.Int64
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Millisecond)
	}
}

func seedAccount(t *testing.T, backend *memory.Store, id, name, phone string) *account.Account {
	t.Helper()
	acc := account.New(id, name, id+"@example.com", phone)
	require.NoError(t, backend.Users().Create(context.Background(), acc))
	return acc
}

func seedAccounts(t *testing.T, backend *memory.Store, n int, prefix string) {
	t.Helper()
	for i := range n {
		seedAccount(t, backend, fmt.Sprintf("%s-%02d", prefix, i), fmt.Sprintf("%s %02d", prefix, i), fmt.Sprintf("+2%04d", i))
	}
}

// recorder keeps every snapshot a listener delivered.
type recorder[T any] struct {
	mu  sync.Mutex
	got []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
}

func (r *recorder[T]) last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.got) == 0 {
		return zero, false
	}
	return r.got[len(r.got)-1], true
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}
