package store

import (
	"sync"
	"testing"
	"time"

	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	repo := NewSessionRepository()

	_, found := repo.Get("sess-1")
	assert.False(t, found)

	s := repo.LoadOrCreate("sess-1")
	assert.Equal(t, "sess-1", s.ID)
	assert.Empty(t, s.Turns)

	s.Turns = []llm.Message{{Role: llm.RoleUser, Content: "hi"}}
	repo.Save(s)

	got, found := repo.Get("sess-1")
	assert.True(t, found)
	assert.Len(t, got.Turns, 1)

	repo.Delete("sess-1")
	_, found = repo.Get("sess-1")
	assert.False(t, found)
}

func TestLockSerializesSameSession(t *testing.T) {
	repo := NewSessionRepository()

	unlock := repo.Lock("sess-1")

	acquired := make(chan struct{})
	go func() {
		u := repo.Lock("sess-1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after unlock")
	}
}

func TestLockIndependentSessions(t *testing.T) {
	repo := NewSessionRepository()

	unlock1 := repo.Lock("sess-1")
	defer unlock1()

	done := make(chan struct{})
	go func() {
		u := repo.Lock("sess-2")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session blocked")
	}
}

func TestLockUnderContention(t *testing.T) {
	repo := NewSessionRepository()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := repo.Lock("sess-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
