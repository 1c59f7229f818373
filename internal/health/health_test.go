package health

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/damiantriebl/pgworkspace/schema"
)

type fakeConn struct {
	net.Conn
}

func (fakeConn) Close() error { return nil }

func newFakeService(dial func(ctx context.Context, network, addr string) (net.Conn, error)) *Service {
	s := New(nil)
	s.dial = dial
	return s
}

func TestCheckHealthy(t *testing.T) {
	var dialedAddr string
	s := newFakeService(func(_ context.Context, network, addr string) (net.Conn, error) {
		dialedAddr = addr
		if network != "tcp" {
			t.Fatalf("unexpected network %q", network)
		}
		return fakeConn{}, nil
	})
	result := s.Check(context.Background(), schema.DefaultConnectionConfig())
	if result.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q (%s)", result.Status, result.Error)
	}
	if dialedAddr != "localhost:5432" {
		t.Fatalf("dialed %q", dialedAddr)
	}
	if result.CheckedAt.IsZero() {
		t.Fatalf("expected timestamp set")
	}
}

func TestCheckUnreachable(t *testing.T) {
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})
	result := s.Check(context.Background(), schema.DefaultConnectionConfig())
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	if !strings.Contains(result.Error, "connection refused") {
		t.Fatalf("expected dial error recorded, got %q", result.Error)
	}
}

func TestCheckSlowServerWarns(t *testing.T) {
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		return fakeConn{}, nil
	})
	// Force the latency classification without a real slow dial.
	slowDial := s.dial
	s.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := slowDial(ctx, network, addr)
		time.Sleep(warnLatency + 50*time.Millisecond)
		return conn, err
	}
	result := s.Check(context.Background(), schema.DefaultConnectionConfig())
	if result.Status != StatusWarning {
		t.Fatalf("expected warning, got %q", result.Status)
	}
}

func TestCheckInvalidConfigSkipsNetwork(t *testing.T) {
	dialed := false
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		dialed = true
		return fakeConn{}, nil
	})
	result := s.Check(context.Background(), schema.ConnectionConfig{})
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %q", result.Status)
	}
	if dialed {
		t.Fatalf("invalid config must not touch the network")
	}
	if !strings.Contains(result.Error, "host is required") {
		t.Fatalf("expected validation detail, got %q", result.Error)
	}
}

func TestCheckProfileRecordsHistory(t *testing.T) {
	healthy := true
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		if healthy {
			return fakeConn{}, nil
		}
		return nil, errors.New("down")
	})
	profile := schema.ConnectionProfile{ID: "p", Config: schema.DefaultConnectionConfig()}

	s.CheckProfile(context.Background(), profile)
	healthy = false
	s.CheckProfile(context.Background(), profile)

	history := s.History("p")
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Status != StatusHealthy || history[1].Status != StatusError {
		t.Fatalf("unexpected history order: %+v", history)
	}
	current, ok := s.Current("p")
	if !ok || current.Status != StatusError {
		t.Fatalf("expected latest entry, got ok=%v %+v", ok, current)
	}
}

func TestHistoryBounded(t *testing.T) {
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		return fakeConn{}, nil
	})
	s.maxHistory = 5
	profile := schema.ConnectionProfile{ID: "p", Config: schema.DefaultConnectionConfig()}
	for i := 0; i < 12; i++ {
		s.CheckProfile(context.Background(), profile)
	}
	if got := len(s.History("p")); got != 5 {
		t.Fatalf("expected history capped at 5, got %d", got)
	}
}

func TestConfiguredHistoryLimitBoundsHistory(t *testing.T) {
	s := NewWithHistory(nil, 5)
	s.dial = func(context.Context, string, string) (net.Conn, error) {
		return fakeConn{}, nil
	}
	profile := schema.ConnectionProfile{ID: "p1", Config: schema.DefaultConnectionConfig()}
	for i := 0; i < 20; i++ {
		s.CheckProfile(context.Background(), profile)
	}
	if got := len(s.History("p1")); got != 5 {
		t.Fatalf("configured limit ignored: history holds %d entries", got)
	}
}

func TestNewWithHistoryRejectsNonPositiveLimit(t *testing.T) {
	s := NewWithHistory(nil, 0)
	if s.maxHistory != defaultMaxHistory {
		t.Fatalf("expected default bound, got %d", s.maxHistory)
	}
}

func TestCurrentEmpty(t *testing.T) {
	s := New(nil)
	if _, ok := s.Current("missing"); ok {
		t.Fatalf("expected no current result")
	}
}

func TestUptime(t *testing.T) {
	healthy := true
	s := newFakeService(func(context.Context, string, string) (net.Conn, error) {
		if healthy {
			return fakeConn{}, nil
		}
		return nil, errors.New("down")
	})
	profile := schema.ConnectionProfile{ID: "p", Config: schema.DefaultConnectionConfig()}
	for i := 0; i < 3; i++ {
		s.CheckProfile(context.Background(), profile)
	}
	healthy = false
	s.CheckProfile(context.Background(), profile)

	got := s.Uptime("p", time.Hour)
	if got != 0.75 {
		t.Fatalf("expected 0.75 uptime, got %v", got)
	}
	if s.Uptime("missing", time.Hour) != -1 {
		t.Fatalf("expected -1 for empty window")
	}
}

func TestValidateConfig(t *testing.T) {
	if issues := ValidateConfig(schema.DefaultConnectionConfig()); len(issues) != 0 {
		t.Fatalf("expected clean default config, got %v", issues)
	}
	bad := schema.ConnectionConfig{QueryTimeoutSecs: -1, MaxConnections: -1}
	issues := ValidateConfig(bad)
	want := []string{"host", "port", "database", "username", "connection timeout", "query timeout", "max connections"}
	for _, fragment := range want {
		found := false
		for _, issue := range issues {
			if strings.Contains(issue, fragment) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected an issue mentioning %q, got %v", fragment, issues)
		}
	}
}
