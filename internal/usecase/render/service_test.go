package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/batch"
	"github.com/kailas-cloud/pesto/internal/domain/flat"
	domrender "github.com/kailas-cloud/pesto/internal/domain/render"
	"github.com/kailas-cloud/pesto/internal/domain/rule"
	"github.com/kailas-cloud/pesto/internal/domain/value"
	"github.com/kailas-cloud/pesto/internal/template"
)

// --- Mocks ---

type mockWriter struct {
	files map[string]string
	err   error
}

func newMockWriter() *mockWriter { return &mockWriter{files: make(map[string]string)} }

func (m *mockWriter) Write(_ context.Context, name string, content []byte, overwrite bool) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.files[name]; ok && !overwrite {
		return domain.ErrFileAlreadyExists
	}
	m.files[name] = string(content)
	return nil
}

type failingTemplate struct{ err error }

func (f failingTemplate) Execute(_ *value.Object) (string, error) { return "", f.err }

func docs(t *testing.T, src string) []*value.Object {
	t.Helper()
	out, err := value.DecodeDump(strings.NewReader(src))
	require.NoError(t, err)
	return out
}

func makeSpec(t *testing.T, pattern string, rules rule.Set) domrender.Spec {
	t.Helper()
	p, err := domrender.ParsePattern(pattern)
	require.NoError(t, err)
	return domrender.Spec{FileName: p, Rules: rules}
}

func makeTemplate(t *testing.T, text string) *template.Template {
	t.Helper()
	tmpl, err := template.New("test", text)
	require.NoError(t, err)
	return tmpl
}

func TestRender_Pipeline(t *testing.T) {
	rules, err := rule.NewSet(
		[]string{"date=created_at"},
		[]string{"layout=post"},
		[]string{"category=Posts"},
		true, []string{"title", "date", "category"},
	)
	require.NoError(t, err)

	svc := New(makeSpec(t, "{date}-{meta_slug}.md", rules), makeTemplate(t, template.DefaultMarkdown), nil, nil)
	d := docs(t, `[{"title":"Hello","created_at":"2024-01-02","meta":{"slug":"hi"},"category":"x",
		"text":"Body @secret=1 #public"}]`)

	out, err := svc.Render(d[0])
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02-hi.md", out.Name)
	assert.Equal(t, "---\ntitle: Hello\ndate: \"2024-01-02\"\ncategory: Posts\n---\nBody  #public\n", out.Content)

	layout, ok := out.Context.Get("layout")
	require.True(t, ok)
	assert.Equal(t, "post", layout.Text())
}

func TestRender_KeepAnnotations(t *testing.T) {
	spec := makeSpec(t, "out.md", rule.Set{})
	spec.KeepAnnotations = true
	svc := New(spec, makeTemplate(t, "{{.text}}"), nil, nil)

	out, err := svc.Render(docs(t, `[{"text":"a @b c"}]`)[0])
	require.NoError(t, err)
	assert.Equal(t, "a @b c", out.Content)
}

func TestRender_MissingFilenameField(t *testing.T) {
	svc := New(makeSpec(t, domrender.DefaultFileName, rule.Set{}), makeTemplate(t, "{{.text}}"), nil, nil)

	_, err := svc.Render(docs(t, `[{"text":"x"}]`)[0])
	require.ErrorIs(t, err, domain.ErrFilenameFieldMissing)
}

func TestRender_TemplateError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(makeSpec(t, "x.md", rule.Set{}), failingTemplate{err: boom}, nil, nil)

	_, err := svc.Render(docs(t, `[{}]`)[0])
	require.ErrorIs(t, err, boom)
}

func TestBuild_WritesEveryDocument(t *testing.T) {
	w := newMockWriter()
	svc := New(makeSpec(t, "{id}.md", rule.Set{}), makeTemplate(t, "{{.text}}"), w, nil)

	results, err := svc.Build(context.Background(), docs(t, `[{"id":"a","text":"1"},{"id":"b","text":"2"}]`), Abort)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, batch.StatusWritten, results[1].Status())
	assert.Equal(t, map[string]string{"a.md": "1", "b.md": "2"}, w.files)
}

func TestBuild_DryRunWritesNothing(t *testing.T) {
	w := newMockWriter()
	spec := makeSpec(t, "{id}.md", rule.Set{})
	spec.DryRun = true
	svc := New(spec, makeTemplate(t, "{{.text}}"), w, nil)

	results, err := svc.Build(context.Background(), docs(t, `[{"id":"a","text":"1"}]`), Abort)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusRendered, results[0].Status())
	assert.Empty(t, w.files)
}

func TestBuild_AbortStopsAtFirstFailure(t *testing.T) {
	w := newMockWriter()
	svc := New(makeSpec(t, "{id}.md", rule.Set{}), makeTemplate(t, "{{.text}}"), w, nil)

	results, err := svc.Build(context.Background(),
		docs(t, `[{"id":"a","text":"1"},{"text":"no id"},{"id":"c","text":"3"}]`), Abort)
	require.ErrorIs(t, err, domain.ErrFilenameFieldMissing)

	var derr *domain.DocumentError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Index)
	assert.Empty(t, derr.ID)
	assert.Len(t, results, 2)
	assert.NotContains(t, w.files, "c.md")
}

func TestBuild_ContinueCollectsFailures(t *testing.T) {
	w := newMockWriter()
	w.files["a.md"] = "old"
	svc := New(makeSpec(t, "{id}.md", rule.Set{}), makeTemplate(t, "{{.text}}"), w, nil)

	results, err := svc.Build(context.Background(),
		docs(t, `[{"id":"a","text":"1"},{"id":"b","text":"2"}]`), Continue)
	require.ErrorIs(t, err, domain.ErrFileAlreadyExists)
	assert.Contains(t, err.Error(), "id=a")

	sum := batch.Summarize(results)
	assert.Equal(t, batch.Summary{Written: 1, Failed: 1}, sum)
	assert.Equal(t, "old", w.files["a.md"])
}

func TestBuild_Overwrite(t *testing.T) {
	w := newMockWriter()
	w.files["a.md"] = "old"
	spec := makeSpec(t, "{id}.md", rule.Set{})
	spec.Overwrite = true
	svc := New(spec, makeTemplate(t, "{{.text}}"), w, nil)

	_, err := svc.Build(context.Background(), docs(t, `[{"id":"a","text":"new"}]`), Abort)
	require.NoError(t, err)
	assert.Equal(t, "new", w.files["a.md"])
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := New(makeSpec(t, "{id}.md", rule.Set{}), makeTemplate(t, "{{.text}}"), newMockWriter(), nil)

	_, err := svc.Build(ctx, docs(t, `[{"id":"a","text":"1"}]`), Abort)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPreview(t *testing.T) {
	svc := New(makeSpec(t, "{n}.txt", rule.Set{}), makeTemplate(t, "{{.n}}"), nil, nil)

	outs, err := svc.Preview(docs(t, `[{"n":1},{"n":2.5}]`))
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "2.5.txt", outs[1].Name)
	assert.Equal(t, "2.5", outs[1].Content)
}

func TestRender_FlattenSeparator(t *testing.T) {
	svc := New(makeSpec(t, "{meta.slug}.md", rule.Set{}), makeTemplate(t, `{{index . "meta.slug"}}`), nil, nil).
		WithFlatten(flat.WithSeparator("."), flat.WithSanitize(""))

	out, err := svc.Render(docs(t, `[{"meta":{"slug":"hello"}}]`)[0])
	require.NoError(t, err)
	assert.Equal(t, "hello.md", out.Name)
	assert.Equal(t, "hello", out.Content)
}
