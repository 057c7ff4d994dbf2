package pesto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/pesto/internal/db"
	dbRedis "github.com/kailas-cloud/pesto/internal/db/redis"
	"github.com/kailas-cloud/pesto/internal/domain/flat"
	"github.com/kailas-cloud/pesto/internal/domain/query"
	"github.com/kailas-cloud/pesto/internal/repository/output"
	"github.com/kailas-cloud/pesto/internal/template"
	pestoapi "github.com/kailas-cloud/pesto/internal/transport/pesto"
	filteruc "github.com/kailas-cloud/pesto/internal/usecase/filter"
	renderuc "github.com/kailas-cloud/pesto/internal/usecase/render"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the pesto SDK entry point.
type Client struct {
	store    db.Store
	render   *renderuc.Service
	server   *pestoapi.Client
	policy   renderuc.ErrorPolicy
	canWrite bool
	cfg      *clientConfig
	obs      *observer
}

// New creates a Client. Rules, the filename pattern and the template are
// validated here; with WithRedis the provided context bounds the initial
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.outputDir != "" && len(cfg.redisAddrs) > 0 {
		return nil, errors.New("pesto: WithOutputDir and WithRedis are mutually exclusive")
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.redisPass})
		if err != nil {
			return nil, fmt.Errorf("pesto: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("pesto: redis not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(store, cfg)
	if err != nil && store != nil {
		store.Close()
	}
	return c, err
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	spec, err := renderuc.Options{
		FileName:          cfg.fileName,
		FrontMatter:       cfg.frontMatter,
		FrontMatterFields: cfg.frontMatterFields,
		Aliases:           cfg.aliases,
		Defaults:          cfg.defaults,
		Overrides:         cfg.overrides,
		KeepAnnotations:   cfg.keepAnnotations,
		Overwrite:         cfg.overwrite,
	}.Spec()
	if err != nil {
		return nil, fmt.Errorf("pesto: %w", err)
	}

	text := cfg.template
	if text == "" {
		text = template.DefaultMarkdown
	}
	tmpl, err := template.New("pesto", text)
	if err != nil {
		return nil, fmt.Errorf("pesto: %w", err)
	}

	var writer renderuc.Writer
	switch {
	case store != nil:
		prefix := cfg.keyPrefix
		if prefix == "" {
			prefix = output.DefaultKeyPrefix
		}
		writer = output.NewKVWriter(store, prefix).WithTTL(cfg.ttl)
	case cfg.outputDir != "":
		w, err := output.NewFileWriter(cfg.outputDir)
		if err != nil {
			return nil, fmt.Errorf("pesto: %w", err)
		}
		writer = w
	default:
		spec.DryRun = true
	}

	policy := renderuc.Abort
	if cfg.continueOnError {
		policy = renderuc.Continue
	}

	serverURL := cfg.serverURL
	if serverURL == "" {
		serverURL = pestoapi.DefaultServerURL
	}

	svc := renderuc.New(spec, tmpl, writer, obs.logger)
	if cfg.separator != "" {
		svc = svc.WithFlatten(flat.WithSeparator(cfg.separator))
	}

	return &Client{
		store:    store,
		render:   svc,
		server:   pestoapi.NewClient(serverURL, cfg.accessKey, cfg.timeout, obs.logger),
		policy:   policy,
		canWrite: writer != nil,
		cfg:      cfg,
		obs:      obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Download fetches the dump of database from the configured server and
// merges each document's JSON content into it.
func (c *Client) Download(ctx context.Context, database string) (docs []*Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("download", start, err) }()

	if c.cfg.accessKey == "" {
		return nil, errors.New("pesto: access key required (use WithServer)")
	}
	docs, err = c.server.Download(ctx, database, true)
	if err != nil {
		return nil, fmt.Errorf("pesto: download %s: %w", database, err)
	}
	return docs, nil
}

// Filter returns the documents matching every filter and no exclude.
func (c *Client) Filter(docs []*Document, filters, excludes []string) (kept []*Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("filter", start, err) }()

	f, err := query.NewFilter(filters, excludes)
	if err != nil {
		return nil, fmt.Errorf("pesto: %w", err)
	}
	return filteruc.New(f, c.obs.logger).Apply(docs), nil
}

// Render renders one document without writing it.
func (c *Client) Render(doc *Document) (out Output, err error) {
	start := time.Now()
	defer func() { c.obs.observe("render", start, err) }()

	o, err := c.render.Render(doc)
	if err != nil {
		return Output{}, fmt.Errorf("pesto: %w", err)
	}
	return Output{Name: o.Name, Content: o.Content}, nil
}

// Preview renders every document without writing, stopping at the first failure.
func (c *Client) Preview(docs []*Document) (outs []Output, err error) {
	start := time.Now()
	defer func() { c.obs.observe("preview", start, err) }()

	rendered, err := c.render.Preview(docs)
	if err != nil {
		return nil, fmt.Errorf("pesto: %w", err)
	}
	outs = make([]Output, len(rendered))
	for i, o := range rendered {
		outs[i] = Output{Name: o.Name, Content: o.Content}
	}
	return outs, nil
}

// Build renders every document and writes it to the configured output.
// Without an output it only renders, and Summary.Rendered counts the documents.
func (c *Client) Build(ctx context.Context, docs []*Document) (s Summary, err error) {
	start := time.Now()
	defer func() { c.obs.observe("build", start, err) }()

	results, err := c.render.Build(ctx, docs, c.policy)
	s = summaryFrom(results)
	if err != nil {
		return s, fmt.Errorf("pesto: %w", err)
	}
	return s, nil
}

// Writes reports whether Build writes outputs.
func (c *Client) Writes() bool { return c.canWrite }
