package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestSessionGate_PermissiveCreatesThenExtends(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	iss, v := newTestPair(t, clock.Now)
	store := NewMemoryStoreWithClock(clock.Now)
	gate, err := NewSessionGate(v, store, 10*time.Minute, false)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	tok := mustIssue(t, iss, Claim{"id", "u1"})

	ok, err := gate.Refresh(context.Background(), tok.Token)
	if err != nil || !ok {
		t.Fatalf("first refresh: ok=%v err=%v", ok, err)
	}
	if got := store.TTL("u1"); got != 10*time.Minute {
		t.Fatalf("expected ttl 10m, got %v", got)
	}

	clock.Advance(time.Second)
	if got := store.TTL("u1"); got != 10*time.Minute-time.Second {
		t.Fatalf("expected ttl to tick down, got %v", got)
	}

	ok, err = gate.Refresh(context.Background(), tok.Token)
	if err != nil || !ok {
		t.Fatalf("second refresh: ok=%v err=%v", ok, err)
	}
	if got := store.TTL("u1"); got != 10*time.Minute {
		t.Fatalf("expected ttl reset to 10m, got %v", got)
	}
}

func TestSessionGate_RefreshAcceptsExpiredToken(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	iss, v := newTestPair(t, clock.Now)
	gate, _ := NewSessionGate(v, NewMemoryStoreWithClock(clock.Now), time.Minute, false)
	tok := mustIssue(t, iss, Claim{"id", "u1"})

	clock.Advance(time.Hour)
	ok, err := gate.Refresh(context.Background(), tok.Token)
	if err != nil || !ok {
		t.Fatalf("expected expired token to be refreshable, ok=%v err=%v", ok, err)
	}
}

func TestSessionGate_RefreshRejectsTamperedToken(t *testing.T) {
	iss, v := newTestPair(t, time.Now)
	gate, _ := NewSessionGate(v, NewMemoryStore(), time.Minute, false)
	tok := mustIssue(t, iss, Claim{"id", "u1"})

	if _, err := gate.Refresh(context.Background(), tok.Token+"x"); err == nil {
		t.Fatalf("expected tampered token to fail")
	}
}

func TestSessionGate_RefreshNeedsSubject(t *testing.T) {
	iss, v := newTestPair(t, time.Now)
	gate, _ := NewSessionGate(v, NewMemoryStore(), time.Minute, false)
	tok := mustIssue(t, iss, Claim{"dept", "eng"})

	if _, err := gate.Refresh(context.Background(), tok.Token); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestSessionGate_StrictDeniesUnknownSubject(t *testing.T) {
	iss, v := newTestPair(t, time.Now)
	store := NewMemoryStore()
	gate, _ := NewSessionGate(v, store, time.Minute, true)
	tok := mustIssue(t, iss, Claim{"id", "u1"})

	ok, err := gate.Refresh(context.Background(), tok.Token)
	if err != nil || ok {
		t.Fatalf("expected strict deny, ok=%v err=%v", ok, err)
	}

	if err := gate.Open(context.Background(), "u1", tok.Token, tok.RefreshToken); err != nil {
		t.Fatalf("open: %v", err)
	}
	ok, err = gate.Refresh(context.Background(), tok.Token)
	if err != nil || !ok {
		t.Fatalf("expected strict allow after open, ok=%v err=%v", ok, err)
	}
}

func TestSessionGate_Renewable(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	_, v := newTestPair(t, clock.Now)
	store := NewMemoryStoreWithClock(clock.Now)
	gate, _ := NewSessionGate(v, store, time.Minute, false)

	if err := gate.Renewable(context.Background(), "u1"); !errors.Is(err, ErrSessionDenied) {
		t.Fatalf("expected ErrSessionDenied, got %v", err)
	}
	_ = gate.Open(context.Background(), "u1", "raw", "r-1")
	if err := gate.Renewable(context.Background(), "u1"); err != nil {
		t.Fatalf("expected renewable, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	if err := gate.Renewable(context.Background(), "u1"); !errors.Is(err, ErrSessionDenied) {
		t.Fatalf("expected lapsed session denied, got %v", err)
	}
}

func TestSessionGate_ConcurrentRefreshKeepsOneEntry(t *testing.T) {
	iss, v := newTestPair(t, time.Now)
	store := NewMemoryStore()
	gate, _ := NewSessionGate(v, store, time.Minute, false)
	tok := mustIssue(t, iss, Claim{"id", "u1"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := gate.Refresh(context.Background(), tok.Token); err != nil || !ok {
				t.Errorf("refresh: ok=%v err=%v", ok, err)
			}
		}()
	}
	wg.Wait()

	got, ok, _ := store.Get(context.Background(), "u1")
	if !ok || got != tok.Token {
		t.Fatalf("expected single entry with token, got %q ok=%v", got, ok)
	}
}

func TestNewSessionGate_Validation(t *testing.T) {
	_, v := newTestPair(t, time.Now)
	if _, err := NewSessionGate(nil, NewMemoryStore(), time.Minute, false); err == nil {
		t.Fatalf("expected error for nil validator")
	}
	if _, err := NewSessionGate(v, NewMemoryStore(), 0, false); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestSessionGate_RedeemChecksRefreshToken(t *testing.T) {
	store := NewMemoryStore()
	_, v := newTestPair(t, time.Now)
	gate, _ := NewSessionGate(v, store, time.Minute, false)
	ctx := context.Background()

	if err := gate.Redeem(ctx, "u1", "r-1"); !errors.Is(err, ErrRefreshTokenMismatch) {
		t.Fatalf("expected mismatch before login, got %v", err)
	}
	if err := gate.Open(ctx, "u1", "raw", "r-1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if stored, _, _ := store.Get(ctx, refreshKeyPrefix+"u1"); stored == "r-1" || stored != hashRefreshToken("r-1") {
		t.Fatalf("expected only the hash stored, got %q", stored)
	}

	if err := gate.Redeem(ctx, "u1", "made-up"); !errors.Is(err, ErrRefreshTokenMismatch) {
		t.Fatalf("expected mismatch for unknown token, got %v", err)
	}
	if err := gate.Redeem(ctx, "u1", "r-1"); err != nil {
		t.Fatalf("expected redeem, got %v", err)
	}

	if err := gate.Rotate(ctx, "u1", "r-2"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := gate.Redeem(ctx, "u1", "r-1"); !errors.Is(err, ErrRefreshTokenMismatch) {
		t.Fatalf("expected rotated-out token rejected, got %v", err)
	}
	if err := gate.Redeem(ctx, "u1", "r-2"); err != nil {
		t.Fatalf("expected current token accepted, got %v", err)
	}
}

func TestSessionGate_RedeemNeedsLiveSession(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	_, v := newTestPair(t, clock.Now)
	store := NewMemoryStoreWithClock(clock.Now)
	gate, _ := NewSessionGate(v, store, time.Minute, false)
	ctx := context.Background()

	_ = gate.Open(ctx, "u1", "raw", "r-1")
	clock.Advance(2 * time.Minute)

	if err := gate.Redeem(ctx, "u1", "r-1"); err == nil {
		t.Fatalf("expected lapsed session rejected")
	}
}
