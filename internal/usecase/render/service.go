// Package render turns filtered documents into named text outputs.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/annotation"
	"github.com/kailas-cloud/pesto/internal/domain/batch"
	"github.com/kailas-cloud/pesto/internal/domain/flat"
	domrender "github.com/kailas-cloud/pesto/internal/domain/render"
	"github.com/kailas-cloud/pesto/internal/domain/value"
	"github.com/kailas-cloud/pesto/internal/metrics"
)

// IDField identifies a document in error messages and logs.
const IDField = "id"

// ErrorPolicy decides what Build does after a per-document failure.
type ErrorPolicy int

// Error policies.
const (
	// Abort stops at the first failing document.
	Abort ErrorPolicy = iota
	// Continue records the failure and moves on.
	Continue
)

// Output is a rendered document.
type Output struct {
	Name    string
	Content string
	Context *value.Object
}

// Service renders documents according to a render spec.
type Service struct {
	spec    domrender.Spec
	tmpl    Template
	writer  Writer
	logger  *zap.Logger
	flatOps []flat.Option
}

// New creates a render service. writer may be nil when spec.DryRun is set.
func New(spec domrender.Spec, tmpl Template, writer Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{spec: spec, tmpl: tmpl, writer: writer, logger: logger}
}

// WithFlatten configures how nested documents are flattened.
func (s *Service) WithFlatten(opts ...flat.Option) *Service {
	s.flatOps = append(s.flatOps, opts...)
	return s
}

// Spec returns the render settings.
func (s *Service) Spec() domrender.Spec { return s.spec }

// Render produces the output for a single document without writing it.
func (s *Service) Render(doc *value.Object) (Output, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.Observe(time.Since(start).Seconds()) }()

	ctx := s.spec.Rules.Build(flat.Flatten(doc, s.flatOps...))

	content, err := s.tmpl.Execute(ctx)
	if err != nil {
		return Output{}, fmt.Errorf("render template: %w", err)
	}
	if !s.spec.KeepAnnotations {
		content = annotation.Strip(content)
	}

	name, err := s.spec.FileName.Expand(ctx)
	if err != nil {
		return Output{}, fmt.Errorf("derive filename: %w", err)
	}
	return Output{Name: name, Content: content, Context: ctx}, nil
}

// Build renders every document and writes it unless this is a dry run.
// Failures are reported as *domain.DocumentError. Under Abort the first failure
// is returned along with the results so far; under Continue all failures are
// joined into the returned error.
func (s *Service) Build(
	ctx context.Context, docs []*value.Object, policy ErrorPolicy,
) ([]batch.Result, error) {
	results := make([]batch.Result, 0, len(docs))
	var errs []error

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("build interrupted: %w", err)
		}

		id := documentID(doc)
		res, err := s.buildOne(ctx, i, id, doc)
		if err != nil {
			derr := domain.NewDocumentError(i, id, err)
			results = append(results, batch.NewFailed(i, id, derr))
			s.logger.Warn("Document failed",
				zap.Int("index", i),
				zap.String("id", id),
				zap.Error(err),
			)
			if policy == Abort {
				return results, derr
			}
			errs = append(errs, derr)
			continue
		}
		results = append(results, res)
	}

	sum := batch.Summarize(results)
	s.logger.Info("Build finished",
		zap.Int("documents", len(docs)),
		zap.Int("written", sum.Written),
		zap.Int("rendered", sum.Rendered),
		zap.Int("failed", sum.Failed),
		zap.Bool("dry_run", s.spec.DryRun),
	)
	return results, errors.Join(errs...)
}

func (s *Service) buildOne(ctx context.Context, i int, id string, doc *value.Object) (batch.Result, error) {
	out, err := s.Render(doc)
	if err != nil {
		metrics.DocumentsTotal.WithLabelValues(metrics.StageRender, "error").Inc()
		return batch.Result{}, err
	}
	metrics.DocumentsTotal.WithLabelValues(metrics.StageRender, "ok").Inc()

	if s.spec.DryRun {
		s.logger.Debug("Rendered document", zap.Int("index", i), zap.String("name", out.Name))
		return batch.NewRendered(i, id, out.Name), nil
	}
	if s.writer == nil {
		return batch.Result{}, errors.New("no output writer configured")
	}

	if err := s.writer.Write(ctx, out.Name, []byte(out.Content), s.spec.Overwrite); err != nil {
		metrics.DocumentsTotal.WithLabelValues(metrics.StageWrite, "error").Inc()
		return batch.Result{}, fmt.Errorf("write %s: %w", out.Name, err)
	}
	metrics.DocumentsTotal.WithLabelValues(metrics.StageWrite, "ok").Inc()
	s.logger.Debug("Wrote document", zap.Int("index", i), zap.String("name", out.Name))
	return batch.NewWritten(i, id, out.Name), nil
}

// Preview renders every document without writing, stopping at the first failure.
func (s *Service) Preview(docs []*value.Object) ([]Output, error) {
	outs := make([]Output, 0, len(docs))
	for i, doc := range docs {
		out, err := s.Render(doc)
		if err != nil {
			return nil, domain.NewDocumentError(i, documentID(doc), err)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func documentID(doc *value.Object) string {
	v, ok := doc.Get(IDField)
	if !ok || v.IsNull() {
		return ""
	}
	return v.Text()
}
