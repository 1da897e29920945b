package health

import (
	"context"
	"errors"
	"testing"
)

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheckAllHealthy(t *testing.T) {
	r := New(&mockDBPinger{}, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	if r.Checks["database"] != CheckOK || r.Checks["embedding"] != CheckOK {
		t.Errorf("checks = %v, want all ok", r.Checks)
	}
}

func TestCheckDBErrorIsUnhealthy(t *testing.T) {
	r := New(&mockDBPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}).
		Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("status = %q, want %q (store is the hard dependency)", r.Status, Unhealthy)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("database check = %q, want error", r.Checks["database"])
	}
}

func TestCheckEmbeddingErrorIsDegraded(t *testing.T) {
	r := New(&mockDBPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}).
		Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("status = %q, want %q (keyword fallback still serves)", r.Status, Degraded)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("embedding check = %q, want error", r.Checks["embedding"])
	}
}

func TestCheckBothFailIsUnhealthy(t *testing.T) {
	r := New(
		&mockDBPinger{err: errors.New("db down")},
		&mockEmbeddingChecker{err: errors.New("emb down")},
	).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("status = %q, want %q", r.Status, Unhealthy)
	}
}

func TestCheckNilEmbedding(t *testing.T) {
	r := New(&mockDBPinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when provider is not configured")
	}
}
