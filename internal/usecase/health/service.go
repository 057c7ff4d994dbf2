package health

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates at least one dependency is unreachable.
	Degraded Status = "degraded"
)

// CheckResult is the outcome of one dependency check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type namedChecker struct {
	name string
	c    Checker
}

// Service runs the registered dependency checks. With none registered the
// process itself is the only thing to check and the report is always healthy.
type Service struct {
	checks  []namedChecker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{timeout: DefaultTimeout, logger: logger}
}

// WithCheck registers a dependency under name. A nil checker is ignored.
func (s *Service) WithCheck(name string, c Checker) *Service {
	if c != nil {
		s.checks = append(s.checks, namedChecker{name: name, c: c})
	}
	return s
}

// WithTimeout sets the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every registered check.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy}
	if len(s.checks) == 0 {
		return r
	}

	r.Checks = make(map[string]CheckResult, len(s.checks))
	for _, nc := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := nc.c.Ping(cctx)
		cancel()

		if err != nil {
			s.logger.Warn("Health check failed", zap.String("check", nc.name), zap.Error(err))
			r.Checks[nc.name] = CheckError
			r.Status = Degraded
			continue
		}
		r.Checks[nc.name] = CheckOK
	}
	return r
}
