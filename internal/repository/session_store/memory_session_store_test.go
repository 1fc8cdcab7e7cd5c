package session_store_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxzillabong/encrypt-chat-ai/internal/domain"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/session_store"
)

func TestSaveGetDelete(t *testing.T) {
	s := session_store.NewMemorySessionStore()

	sess := domain.Session{ID: "abc", Key: []byte("k"), TenantID: "t", CreatedAt: time.Now()}
	s.Save(sess)

	got, ok := s.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "t", got.TenantID)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	s.Delete("abc")
	_, ok = s.Get("abc")
	assert.False(t, ok)
}

func TestSave_CopiesKey(t *testing.T) {
	s := session_store.NewMemorySessionStore()

	key := []byte{1, 2, 3}
	s.Save(domain.Session{ID: "abc", Key: key})
	key[0] = 0xFF

	got, ok := s.Get("abc")
	require.True(t, ok)
	assert.Equal(t, byte(1), got.Key[0])
}

func TestCleanup_ExpiryHorizon(t *testing.T) {
	s := session_store.NewMemorySessionStore()

	s.Save(domain.Session{ID: "stale", CreatedAt: time.Now().Add(-25 * time.Hour)})
	s.Save(domain.Session{ID: "fresh", CreatedAt: time.Now().Add(-1 * time.Hour)})

	removed := s.Cleanup(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := s.Get("stale")
	assert.False(t, ok)
	_, ok = s.Get("fresh")
	assert.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	s := session_store.NewMemorySessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("sess-%d", i)
		go func() {
			defer wg.Done()
			s.Save(domain.Session{ID: id, CreatedAt: time.Now()})
		}()
		go func() {
			defer wg.Done()
			s.Get(id)
			s.Cleanup(24 * time.Hour)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
