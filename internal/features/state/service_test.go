package state

import (
	"context"
	"testing"

	"licensebot/internal/db/proxy"
	"licensebot/internal/db/proxy/proxytest"
)

func newService(t *testing.T) (*Service, *proxytest.Server) {
	t.Helper()
	fake := proxytest.NewServer("test-key")
	t.Cleanup(fake.Close)
	return NewService(NewRepository(proxy.New(fake.URL(), "test-key"))), fake
}

func TestEnterCurrentClear(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	st, err := svc.Current(ctx, 100)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if st != nil {
		t.Fatalf("fresh chat should be idle, got %+v", st)
	}

	payload := map[string]string{"game_type": "ff", "duration": "3"}
	if err := svc.Enter(ctx, 100, WaitingManualInput, payload); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	st, err = svc.Current(ctx, 100)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if st == nil || st.Name != WaitingManualInput {
		t.Fatalf("got state %+v, want %s", st, WaitingManualInput)
	}
	if st.Get("game_type") != "ff" || st.Get("duration") != "3" {
		t.Errorf("payload not round-tripped: %+v", st.Payload)
	}
	if st.ErrorCount != 0 {
		t.Errorf("Enter should reset error count, got %d", st.ErrorCount)
	}

	if err := svc.Clear(ctx, 100); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	st, err = svc.Current(ctx, 100)
	if err != nil {
		t.Fatalf("Current after Clear: %v", err)
	}
	if st != nil {
		t.Errorf("state should be gone after Clear, got %+v", st)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	if err := svc.Clear(context.Background(), 555); err != nil {
		t.Fatalf("clearing an idle chat should be a no-op, got %v", err)
	}
}

func TestRecordErrorAccumulates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.Enter(ctx, 7, WaitingExtendCredentials, nil); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	st, _ := svc.Current(ctx, 7)

	n, err := svc.RecordError(ctx, 7, st)
	if err != nil || n != 1 {
		t.Fatalf("first strike: n=%d err=%v", n, err)
	}

	st, _ = svc.Current(ctx, 7)
	n, err = svc.RecordError(ctx, 7, st)
	if err != nil || n != 2 {
		t.Fatalf("second strike: n=%d err=%v", n, err)
	}
}

func TestStateGetNilSafe(t *testing.T) {
	var st *State
	if st.Get("anything") != "" {
		t.Error("nil state Get should return empty string")
	}
}
