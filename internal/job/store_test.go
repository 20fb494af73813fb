package job

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Create / Get / List basics
// ---------------------------------------------------------------------------

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	id := s.Create()

	rec, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, StatusReceived, rec.Status)
	assert.Empty(t, rec.Transcript)
	assert.Empty(t, rec.Response)
	assert.Empty(t, rec.Error)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestGetNotFound(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestUpdateNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Update("nope", func(r *Record) { r.Status = StatusTranscribing })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	s := NewStore()
	a := s.Create()
	b := s.Create()
	c := s.Create()

	all := s.List()
	require.Len(t, all, 3)
	assert.Equal(t, []string{a, b, c}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, 3, s.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	id := s.Create()

	rec, _ := s.Get(id)
	rec.Status = StatusDone
	rec.Response = "tampered"

	again, _ := s.Get(id)
	assert.Equal(t, StatusReceived, again.Status)
	assert.Empty(t, again.Response)
}

// ---------------------------------------------------------------------------
// Status transition guards
// ---------------------------------------------------------------------------

func TestUpdateFollowsLifecycle(t *testing.T) {
	s := NewStore()
	id := s.Create()

	for _, status := range []Status{StatusTranscribing, StatusThinking, StatusDone} {
		_, err := s.Update(id, func(r *Record) { r.Status = status })
		require.NoError(t, err, "transition to %s", status)
	}

	rec, _ := s.Get(id)
	assert.Equal(t, StatusDone, rec.Status)
}

func TestUpdateRejectsSkippedStage(t *testing.T) {
	s := NewStore()
	id := s.Create()

	_, err := s.Update(id, func(r *Record) {
		r.Status = StatusDone
		r.Response = "too early"
	})
	require.ErrorIs(t, err, ErrInvalidTransition)

	rec, _ := s.Get(id)
	assert.Equal(t, StatusReceived, rec.Status)
	assert.Empty(t, rec.Response, "rejected update must not be partially applied")
}

func TestUpdateRejectsBackwards(t *testing.T) {
	s := NewStore()
	id := s.Create()
	_, err := s.Update(id, func(r *Record) { r.Status = StatusTranscribing })
	require.NoError(t, err)

	_, err = s.Update(id, func(r *Record) { r.Status = StatusReceived })
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestErrorReachableFromEveryActiveStage(t *testing.T) {
	for _, path := range [][]Status{
		{},
		{StatusTranscribing},
		{StatusTranscribing, StatusThinking},
	} {
		s := NewStore()
		id := s.Create()
		for _, status := range path {
			_, err := s.Update(id, func(r *Record) { r.Status = status })
			require.NoError(t, err)
		}
		_, err := s.Update(id, func(r *Record) {
			r.Status = StatusError
			r.Error = "boom"
		})
		require.NoError(t, err, "error from %v", path)
	}
}

func TestFieldUpdateWithoutStatusChange(t *testing.T) {
	s := NewStore()
	id := s.Create()

	rec, err := s.Update(id, func(r *Record) { r.Language = "en" })
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, rec.Status)
	assert.Equal(t, "en", rec.Language)
}

func TestUpdateCannotChangeIdentity(t *testing.T) {
	s := NewStore()
	id := s.Create()

	rec, err := s.Update(id, func(r *Record) {
		r.ID = "other"
		r.CreatedAt = time.Time{}
	})
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

// ---------------------------------------------------------------------------
// Terminal records are immutable
// ---------------------------------------------------------------------------

func TestTerminalRecordsAreImmutable(t *testing.T) {
	for _, terminal := range []Status{StatusDone, StatusError} {
		s := NewStore()
		id := s.Create()
		for _, status := range []Status{StatusTranscribing, StatusThinking, terminal} {
			_, err := s.Update(id, func(r *Record) { r.Status = status })
			require.NoError(t, err)
		}
		before, _ := s.Get(id)

		_, err := s.Update(id, func(r *Record) {
			r.Status = StatusError
			r.Response = "late write"
		})
		require.ErrorIs(t, err, ErrTerminal)

		after, _ := s.Get(id)
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("terminal %s record changed (-before +after):\n%s", terminal, diff)
		}
	}
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummaryCounts(t *testing.T) {
	s := NewStore()
	s.Create()
	thinking := s.Create()
	failed := s.Create()

	for _, status := range []Status{StatusTranscribing, StatusThinking} {
		_, err := s.Update(thinking, func(r *Record) { r.Status = status })
		require.NoError(t, err)
	}
	_, err := s.Update(failed, func(r *Record) { r.Status = StatusError })
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Received: 1, Thinking: 1, Error: 1}, s.Summary())
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestConcurrentCreateUniqueIDs(t *testing.T) {
	s := NewStore()
	const n = 200

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Create()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, n, s.Len())
}

func TestConcurrentUpdatesDifferentJobs(t *testing.T) {
	s := NewStore()
	const n = 50
	ids := make([]string, n)
	for i := range ids {
		ids[i] = s.Create()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, status := range []Status{StatusTranscribing, StatusThinking, StatusDone} {
				_, err := s.Update(id, func(r *Record) {
					r.Status = status
					r.Response = id
				})
				if err != nil {
					t.Errorf("update %s: %v", id, err)
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		rec, _ := s.Get(id)
		assert.Equal(t, StatusDone, rec.Status)
		assert.Equal(t, id, rec.Response)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusThinking.Terminal())
}
