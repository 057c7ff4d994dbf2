package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/config"
	"github.com/kailas-cloud/pesto/internal/db"
	dbRedis "github.com/kailas-cloud/pesto/internal/db/redis"
	"github.com/kailas-cloud/pesto/internal/domain/batch"
	"github.com/kailas-cloud/pesto/internal/domain/flat"
	"github.com/kailas-cloud/pesto/internal/domain/query"
	"github.com/kailas-cloud/pesto/internal/domain/rule"
	"github.com/kailas-cloud/pesto/internal/metrics"
	"github.com/kailas-cloud/pesto/internal/repository/dump"
	"github.com/kailas-cloud/pesto/internal/repository/output"
	"github.com/kailas-cloud/pesto/internal/template"
	filteruc "github.com/kailas-cloud/pesto/internal/usecase/filter"
	renderuc "github.com/kailas-cloud/pesto/internal/usecase/render"
	"github.com/kailas-cloud/pesto/internal/watch"
)

type buildFlags struct {
	fileName          string
	templatePath      string
	annotations       bool
	frontMatter       bool
	frontMatterFields string
	aliases           []string
	defaults          []string
	overrides         []string
	dryRun            bool
	force             bool
	continueOnError   bool
	filters           []string
	excludes          []string
	outputDriver      string
	watch             bool
	preview           bool
	separator         string
}

func newBuildCmd(a *app) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:     "build INPUT [OUTPUT_DIR]",
		Aliases: []string{"build-markdown"},
		Short:   "Render every document of a dump to a file",
		Long: `Renders each document of a JSON dump (use - for stdin) through a template
and writes one file per document into OUTPUT_DIR.

The template context is the flattened document (nested keys joined with _),
then --aliases, --defaults and --overrides, then the front_matter object.`,
		Example: `  pesto build dump.json site/_posts -a date=created_at -d layout=post.html \
    -o category=Posts --front-matter-fields title,date,layout,category`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyBuildFlags(cmd, &f)
			return a.runBuild(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.fileName, "file-name", "{created_at}.md", "output filename pattern; {field} is replaced from the context")
	fl.StringVar(&f.templatePath, "template", "", "path to a Go text/template file (default: built-in markdown)")
	fl.BoolVar(&f.annotations, "annotations", false, "keep @private annotations in the output")
	fl.BoolVar(&f.frontMatter, "front-matter", true, "add a front_matter object to the context")
	fl.StringVar(&f.frontMatterFields, "front-matter-fields", "", "comma-separated fields copied into front matter, e.g. title,date,layout")
	fl.StringArrayVarP(&f.aliases, "aliases", "a", nil, "copy a field under a new name: new=existing (repeatable)")
	fl.StringArrayVarP(&f.defaults, "defaults", "d", nil, "set a field when absent: key=value (repeatable)")
	fl.StringArrayVarP(&f.overrides, "overrides", "o", nil, "always set a field: key=value (repeatable)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "render without writing anything")
	fl.BoolVar(&f.force, "force", false, "overwrite existing outputs")
	fl.BoolVar(&f.continueOnError, "continue-on-error", false, "keep going after a document fails")
	fl.StringArrayVarP(&f.filters, "filter", "f", nil, "only build documents matching this expression (repeatable)")
	fl.StringArrayVarP(&f.excludes, "exclude", "e", nil, "skip documents matching this expression (repeatable)")
	fl.StringVar(&f.outputDriver, "output-driver", config.DriverFS, "where to write outputs: fs or redis")
	fl.BoolVarP(&f.watch, "watch", "w", false, "rebuild whenever INPUT changes")
	fl.BoolVar(&f.preview, "preview", false, "with --dry-run, print each rendered document to the terminal")
	fl.StringVar(&f.separator, "separator", flat.DefaultSeparator, "joins nested keys in the template context")
	return cmd
}

// applyBuildFlags layers the config under the flags: a flag wins only when set.
func (a *app) applyBuildFlags(cmd *cobra.Command, f *buildFlags) {
	b := a.cfg.Build
	fl := cmd.Flags()
	if !fl.Changed("file-name") && b.FileName != "" {
		f.fileName = b.FileName
	}
	if !fl.Changed("template") {
		f.templatePath = b.Template
	}
	if !fl.Changed("annotations") {
		f.annotations = b.Annotations
	}
	if !fl.Changed("front-matter") {
		f.frontMatter = b.FrontMatterEnabled()
	}
	if !fl.Changed("aliases") {
		f.aliases = b.Aliases
	}
	if !fl.Changed("defaults") {
		f.defaults = b.Defaults
	}
	if !fl.Changed("overrides") {
		f.overrides = b.Overrides
	}
	if !fl.Changed("force") {
		f.force = b.Force
	}
	if !fl.Changed("continue-on-error") {
		f.continueOnError = b.ContinueOnError
	}
	if !fl.Changed("output-driver") {
		f.outputDriver = a.cfg.Output.Driver
	}
	if !fl.Changed("front-matter-fields") && len(b.FrontMatterFields) > 0 {
		f.frontMatterFields = ""
		for i, field := range b.FrontMatterFields {
			if i > 0 {
				f.frontMatterFields += ","
			}
			f.frontMatterFields += field
		}
	}
}

func (f buildFlags) options() renderuc.Options {
	return renderuc.Options{
		FileName:          f.fileName,
		FrontMatter:       f.frontMatter,
		FrontMatterFields: rule.SplitFields(f.frontMatterFields),
		Aliases:           f.aliases,
		Defaults:          f.defaults,
		Overrides:         f.overrides,
		KeepAnnotations:   f.annotations,
		DryRun:            f.dryRun,
		Overwrite:         f.force,
	}
}

func (a *app) runBuild(cmd *cobra.Command, f buildFlags, args []string) error {
	input := args[0]
	if f.watch && input == dump.Stdin {
		return errors.New("--watch needs a file INPUT, not stdin")
	}
	if f.watch && !f.dryRun && !f.force {
		return errors.New("--watch rewrites existing outputs; pass --force or --dry-run")
	}
	if f.preview && !f.dryRun {
		return errors.New("--preview requires --dry-run")
	}

	// Every expression, rule and template is checked before any document is read.
	filter, err := query.NewFilter(f.filters, f.excludes)
	if err != nil {
		return err
	}
	spec, err := f.options().Spec()
	if err != nil {
		return err
	}
	tmpl, err := loadTemplate(f.templatePath)
	if err != nil {
		return err
	}

	writer, closeWriter, err := a.openWriter(cmd.Context(), f, args)
	if err != nil {
		return err
	}
	defer closeWriter()

	svc := renderuc.New(spec, tmpl, writer, a.logger).WithFlatten(flat.WithSeparator(f.separator))
	filterSvc := filteruc.New(filter, a.logger)
	policy := renderuc.Abort
	if f.continueOnError {
		policy = renderuc.Continue
	}

	run := func(ctx context.Context) error {
		err := a.buildOnce(ctx, cmd.ErrOrStderr(), input, filterSvc, svc, policy, f.preview)
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.BuildRunsTotal.WithLabelValues(status).Inc()
		a.exportMetrics()
		return err
	}

	if !f.watch {
		return run(cmd.Context())
	}
	return a.watchBuild(cmd.Context(), input, run)
}

func (a *app) buildOnce(
	ctx context.Context, stderr io.Writer, input string,
	filterSvc *filteruc.Service, svc *renderuc.Service, policy renderuc.ErrorPolicy, preview bool,
) error {
	docs, err := dump.ReadFile(input, a.stdin)
	if err != nil {
		return err
	}
	docs = filterSvc.Apply(docs)

	fmt.Fprintf(stderr, "Building %d documents\n", len(docs))
	if preview {
		outs, err := svc.Preview(docs)
		if err != nil {
			return err
		}
		return printPreview(a.stdout, outs)
	}

	results, buildErr := svc.Build(ctx, docs, policy)
	for _, r := range results {
		if r.Status() != batch.StatusFailed {
			fmt.Fprintf(stderr, "Writing %s…\n", r.Name())
		}
	}
	return buildErr
}

func (a *app) watchBuild(ctx context.Context, input string, run func(context.Context) error) error {
	w, err := watch.New(a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	changes, err := w.Changes(ctx, input)
	if err != nil {
		return err
	}

	if err := run(ctx); err != nil {
		a.logger.Error("Build failed", zap.Error(err))
	}
	a.logger.Info("Watching for changes", zap.String("input", input))

	for range changes {
		a.logger.Info("Input changed, rebuilding", zap.String("input", input))
		if err := run(ctx); err != nil {
			a.logger.Error("Build failed", zap.Error(err))
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func loadTemplate(path string) (*template.Template, error) {
	if path == "" {
		return template.New("markdown", template.DefaultMarkdown)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return template.New(path, string(text))
}

// openWriter returns the configured output writer, or nil on a dry run.
func (a *app) openWriter(ctx context.Context, f buildFlags, args []string) (renderuc.Writer, func(), error) {
	noop := func() {}
	if f.dryRun {
		return nil, noop, nil
	}

	switch f.outputDriver {
	case config.DriverFS:
		if len(args) < 2 {
			return nil, noop, errors.New("OUTPUT_DIR is required unless --dry-run or --output-driver redis")
		}
		w, err := output.NewFileWriter(args[1])
		if err != nil {
			return nil, noop, err
		}
		a.logger.Info("Writing outputs to directory", zap.String("dir", w.Root()))
		return w, noop, nil
	case config.DriverRedis:
		rc := a.cfg.Output.Redis
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    rc.Addrs,
			Username: rc.Username,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		var store db.Store = s
		if err := store.WaitForReady(ctx, time.Duration(rc.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, noop, err
		}
		w := output.NewKVWriter(store, rc.KeyPrefix).WithTTL(time.Duration(rc.TTLSec) * time.Second)
		a.logger.Info("Writing outputs to redis", zap.Strings("addrs", rc.Addrs), zap.String("prefix", rc.KeyPrefix))
		return w, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown output driver %q", f.outputDriver)
	}
}

func printPreview(out io.Writer, outs []renderuc.Output) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create preview renderer: %w", err)
	}
	for _, o := range outs {
		rendered, err := r.Render(o.Content)
		if err != nil {
			return fmt.Errorf("preview %s: %w", o.Name, err)
		}
		fmt.Fprintf(out, "── %s ──\n%s\n", o.Name, rendered)
	}
	return nil
}
