package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/KrystelLucin/go-loly/pkg/pose"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client), mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := New(KindEmotional, "happy", []string{"saludo"}, 5.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != KindEmotional || got.Emotion != "happy" {
		t.Errorf("got kind=%q emotion=%q", got.Kind, got.Emotion)
	}
	if got.TargetDuration != 5.0 {
		t.Errorf("target duration: got %v, want 5.0", got.TargetDuration)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "saludo" {
		t.Errorf("keywords: got %v", got.Keywords)
	}
	if got.Recording || got.Finished {
		t.Errorf("fresh session should be idle: recording=%v finished=%v",
			got.Recording, got.Finished)
	}
}

func TestStore_GetAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get absent: got %v, want ErrNotFound", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, _ := New(KindContextual, "", nil, 3.0)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mr.FastForward(DefaultTTL + time.Second)

	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired Get: got %v, want ErrNotFound", err)
	}
}

func TestStore_SaveRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, _ := New(KindEmotional, "", nil, 3.0)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Half the TTL passes, then a mutation is persisted.
	mr.FastForward(DefaultTTL / 2)
	sess.Recording = true
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The original deadline passes; the refreshed key must survive.
	mr.FastForward(DefaultTTL/2 + time.Second)
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get after refresh: %v", err)
	}
	if !got.Recording {
		t.Error("saved mutation lost")
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, _ := New(KindEmotional, "", nil, 3.0)
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: got %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestSession_AppendFrame(t *testing.T) {
	sess, _ := New(KindEmotional, "", nil, 3.0)
	now := time.Now().UTC()
	sess.Recording = true
	sess.RecordingStart = &now

	if err := sess.AppendFrame(Frame{Timestamp: 0.1, Pose: pose.Neutral()}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := sess.AppendFrame(Frame{Timestamp: 0.2, Pose: pose.Neutral()}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	// Timestamps must be strictly increasing.
	if err := sess.AppendFrame(Frame{Timestamp: 0.2}); err == nil {
		t.Error("expected error for non-increasing timestamp")
	}

	sess.Recording = false
	sess.Finished = true
	if err := sess.AppendFrame(Frame{Timestamp: 0.3}); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("append after finish: got %v, want ErrSessionFinished", err)
	}
}

func TestSession_AppendFrameNotRecording(t *testing.T) {
	sess, _ := New(KindEmotional, "", nil, 3.0)
	if err := sess.AppendFrame(Frame{Timestamp: 0.1}); !errors.Is(err, ErrNotRecording) {
		t.Errorf("append before start: got %v, want ErrNotRecording", err)
	}
}

func TestSession_TimeLeft(t *testing.T) {
	sess, _ := New(KindEmotional, "", nil, 5.0)

	if _, ok := sess.TimeLeft(time.Now()); ok {
		t.Error("idle session should report no time left")
	}

	start := time.Now().UTC()
	sess.Recording = true
	sess.RecordingStart = &start

	left, ok := sess.TimeLeft(start.Add(2 * time.Second))
	if !ok || left != 3.0 {
		t.Errorf("time left: got %v ok=%v, want 3.0 true", left, ok)
	}

	// Floored at zero once the target has elapsed.
	left, ok = sess.TimeLeft(start.Add(10 * time.Second))
	if !ok || left != 0 {
		t.Errorf("overrun time left: got %v ok=%v, want 0 true", left, ok)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Kind("bogus"), "", nil, 5.0); err == nil {
		t.Error("expected error for invalid kind")
	}
	if _, err := New(KindEmotional, "", nil, 0); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := New(KindEmotional, "", nil, -1); err == nil {
		t.Error("expected error for negative duration")
	}
}
