// Package filter selects the documents of a dump that satisfy a query.
package filter

import (
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/domain/query"
	"github.com/kailas-cloud/pesto/internal/domain/value"
	"github.com/kailas-cloud/pesto/internal/metrics"
)

// Service applies a parsed filter to documents.
type Service struct {
	filter query.Filter
	logger *zap.Logger
}

// New creates a filter service.
func New(f query.Filter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{filter: f, logger: logger}
}

// Filter returns the configured query.
func (s *Service) Filter() query.Filter { return s.filter }

// Apply returns the documents that survive the filter, in input order.
// Comparison errors count as non-matches and are logged per document.
func (s *Service) Apply(docs []*value.Object) []*value.Object {
	if s.filter.IsEmpty() {
		metrics.DocumentsTotal.WithLabelValues(metrics.StageFilter, "kept").Add(float64(len(docs)))
		return docs
	}

	kept := make([]*value.Object, 0, len(docs))
	for i, doc := range docs {
		keep, err := s.filter.Evaluate(doc)
		if err != nil {
			s.recordErrors(i, err)
		}
		if !keep {
			metrics.DocumentsTotal.WithLabelValues(metrics.StageFilter, "dropped").Inc()
			continue
		}
		metrics.DocumentsTotal.WithLabelValues(metrics.StageFilter, "kept").Inc()
		kept = append(kept, doc)
	}

	s.logger.Info("Filtered documents",
		zap.Int("total", len(docs)),
		zap.Int("kept", len(kept)),
	)
	return kept
}

func (s *Service) recordErrors(index int, err error) {
	for _, e := range unwrapJoined(err) {
		var evalErr *query.EvaluationError
		if errors.As(e, &evalErr) {
			metrics.EvaluationErrorsTotal.WithLabelValues(string(evalErr.Operator)).Inc()
		}
		s.logger.Debug("Predicate evaluated as non-match",
			zap.Int("index", index),
			zap.Error(e),
		)
	}
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
