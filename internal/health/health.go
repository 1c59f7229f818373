package health

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// Status classifies a health check outcome.
type Status string

const (
	// StatusHealthy means the server accepted a connection promptly.
	StatusHealthy Status = "healthy"
	// StatusWarning means the server responded slowly.
	StatusWarning Status = "warning"
	// StatusError means the server could not be reached.
	StatusError Status = "error"
)

// warnLatency is the connect latency beyond which a reachable server is
// reported as degraded.
const warnLatency = time.Second

// defaultMaxHistory bounds per-profile check history.
const defaultMaxHistory = 100

// CheckResult is one health check observation.
type CheckResult struct {
	Status    Status        `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}

// Service runs reachability checks against connection targets and keeps a
// bounded per-profile history. Checks are TCP-level only; query semantics
// live elsewhere.
type Service struct {
	dial       func(ctx context.Context, network, addr string) (net.Conn, error)
	log        pslog.Logger
	maxHistory int

	mu      sync.Mutex
	history map[schema.ProfileID][]CheckResult
}

// New constructs a health service with the default history bound.
func New(logger pslog.Logger) *Service {
	return NewWithHistory(logger, defaultMaxHistory)
}

// NewWithHistory constructs a health service keeping at most maxHistory
// checks per profile. Non-positive limits fall back to the default.
func NewWithHistory(logger pslog.Logger, maxHistory int) *Service {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	dialer := &net.Dialer{}
	return &Service{
		dial:       dialer.DialContext,
		log:        logger,
		maxHistory: maxHistory,
		history:    make(map[schema.ProfileID][]CheckResult),
	}
}

// Check dials the configured host and reports reachability and latency.
// Invalid configs fail without touching the network.
func (s *Service) Check(ctx context.Context, cfg schema.ConnectionConfig) CheckResult {
	result := CheckResult{CheckedAt: time.Now().UTC()}
	if issues := ValidateConfig(cfg); len(issues) > 0 {
		result.Status = StatusError
		result.Error = strings.Join(issues, "; ")
		return result
	}
	timeout := time.Duration(cfg.ConnectionTimeoutSecs) * time.Second
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	started := time.Now()
	conn, err := s.dial(dialCtx, "tcp", cfg.Addr())
	result.Latency = time.Since(started)
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		s.log.Warn("health check failed", "addr", cfg.Addr(), "err", err)
		return result
	}
	_ = conn.Close()
	if result.Latency > warnLatency {
		result.Status = StatusWarning
	} else {
		result.Status = StatusHealthy
	}
	s.log.Debug("health check ok", "addr", cfg.Addr(), "latency_ms", result.Latency.Milliseconds())
	return result
}

// CheckProfile checks the profile's target and records the result in its
// history.
func (s *Service) CheckProfile(ctx context.Context, profile schema.ConnectionProfile) CheckResult {
	result := s.Check(ctx, profile.Config)
	s.mu.Lock()
	entries := append(s.history[profile.ID], result)
	if len(entries) > s.maxHistory {
		entries = entries[len(entries)-s.maxHistory:]
	}
	s.history[profile.ID] = entries
	s.mu.Unlock()
	return result
}

// History returns the recorded checks for the profile, oldest first.
func (s *Service) History(id schema.ProfileID) []CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CheckResult(nil), s.history[id]...)
}

// Current returns the most recent check for the profile.
func (s *Service) Current(id schema.ProfileID) (CheckResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[id]
	if len(entries) == 0 {
		return CheckResult{}, false
	}
	return entries[len(entries)-1], true
}

// Uptime reports the fraction of non-error checks within the window, or -1
// when no checks fall inside it.
func (s *Service) Uptime(id schema.ProfileID, window time.Duration) float64 {
	cutoff := time.Now().UTC().Add(-window)
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	up := 0
	for _, entry := range s.history[id] {
		if entry.CheckedAt.Before(cutoff) {
			continue
		}
		total++
		if entry.Status != StatusError {
			up++
		}
	}
	if total == 0 {
		return -1
	}
	return float64(up) / float64(total)
}

// ValidateConfig reports every problem with a connection config. An empty
// result means the config is usable.
func ValidateConfig(cfg schema.ConnectionConfig) []string {
	var issues []string
	if strings.TrimSpace(cfg.Host) == "" {
		issues = append(issues, "host is required")
	}
	if cfg.Port == 0 {
		issues = append(issues, "port must be between 1 and 65535")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		issues = append(issues, "database is required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		issues = append(issues, "username is required")
	}
	if cfg.ConnectionTimeoutSecs <= 0 {
		issues = append(issues, "connection timeout must be positive")
	}
	if cfg.QueryTimeoutSecs < 0 {
		issues = append(issues, fmt.Sprintf("query timeout must not be negative, got %d", cfg.QueryTimeoutSecs))
	}
	if cfg.MaxConnections < 0 {
		issues = append(issues, "max connections must not be negative")
	}
	return issues
}
