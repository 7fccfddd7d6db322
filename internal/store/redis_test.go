package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/store"
	"github.com/cory-johannsen/arena/internal/testutil"
)

// TestRedisStore_Integration exercises the full store contract against a
// real Redis. Docker is required; the test is skipped without it.
func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	rc := testutil.NewRedisContainer(t)

	st, err := store.NewRedisStore(ctx, rc.Client)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}

	t.Run("put and get", func(t *testing.T) {
		if err := st.Put(ctx, "s1", sampleSession("s1"), time.Hour); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := st.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != "s1" || len(got.Participants) != 2 || got.TurnOrder[0] != "hero" {
			t.Errorf("Get returned %+v, want the stored session", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := st.Get(ctx, "ghost"); !errors.Is(err, combat.ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		_ = st.Put(ctx, "s2", sampleSession("s2"), time.Hour)
		if err := st.Delete(ctx, "s2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := st.Get(ctx, "s2"); !errors.Is(err, combat.ErrSessionNotFound) {
			t.Errorf("Get after delete = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("ttl expiry", func(t *testing.T) {
		if err := st.Put(ctx, "s3", sampleSession("s3"), 200*time.Millisecond); err != nil {
			t.Fatalf("Put: %v", err)
		}
		time.Sleep(400 * time.Millisecond)
		if _, err := st.Get(ctx, "s3"); !errors.Is(err, combat.ErrSessionNotFound) {
			t.Errorf("Get after TTL = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("update commits", func(t *testing.T) {
		_ = st.Put(ctx, "s4", sampleSession("s4"), time.Hour)
		updated, err := st.Update(ctx, "s4", time.Hour, func(s *combat.Session) (*combat.Session, error) {
			s.RoundNumber = 5
			return s, nil
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.RoundNumber != 5 {
			t.Errorf("returned RoundNumber = %d, want 5", updated.RoundNumber)
		}
		stored, _ := st.Get(ctx, "s4")
		if stored.RoundNumber != 5 {
			t.Errorf("stored RoundNumber = %d, want 5", stored.RoundNumber)
		}
	})

	t.Run("update fn error writes nothing", func(t *testing.T) {
		_ = st.Put(ctx, "s5", sampleSession("s5"), time.Hour)
		sentinel := errors.New("rejected")
		_, err := st.Update(ctx, "s5", time.Hour, func(s *combat.Session) (*combat.Session, error) {
			s.RoundNumber = 99
			return nil, sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("err = %v, want the fn error unchanged", err)
		}
		stored, _ := st.Get(ctx, "s5")
		if stored.RoundNumber != 1 {
			t.Errorf("stored RoundNumber = %d, want 1", stored.RoundNumber)
		}
	})

	t.Run("update missing session", func(t *testing.T) {
		_, err := st.Update(ctx, "ghost", time.Hour, func(s *combat.Session) (*combat.Session, error) {
			return s, nil
		})
		if !errors.Is(err, combat.ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("concurrent updates all land", func(t *testing.T) {
		_ = st.Put(ctx, "s6", sampleSession("s6"), time.Hour)
		const workers = 4
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.Update(ctx, "s6", time.Hour, func(s *combat.Session) (*combat.Session, error) {
					s.RoundNumber++
					return s, nil
				})
				if err != nil {
					t.Errorf("Update: %v", err)
				}
			}()
		}
		wg.Wait()

		stored, _ := st.Get(ctx, "s6")
		if stored.RoundNumber != 1+workers {
			t.Errorf("RoundNumber = %d, want %d", stored.RoundNumber, 1+workers)
		}
	})

	t.Run("actor index", func(t *testing.T) {
		if err := st.BindActor(ctx, "hero", "s1", time.Hour); err != nil {
			t.Fatalf("BindActor: %v", err)
		}
		got, err := st.ActorSession(ctx, "hero")
		if err != nil || got != "s1" {
			t.Errorf("ActorSession = %q, %v, want s1, nil", got, err)
		}
		if err := st.ReleaseActor(ctx, "hero"); err != nil {
			t.Fatalf("ReleaseActor: %v", err)
		}
		if _, err := st.ActorSession(ctx, "hero"); !errors.Is(err, combat.ErrSessionNotFound) {
			t.Errorf("ActorSession after release = %v, want ErrSessionNotFound", err)
		}
	})
}
