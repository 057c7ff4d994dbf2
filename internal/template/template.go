// Package template renders document contexts with Go text/template.
package template

import (
	"fmt"
	"slices"
	"strings"
	gotemplate "text/template"
	"text/template/parse"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pesto/internal/domain/rule"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

// DefaultMarkdown renders the front matter block, if any, followed by the document text.
const DefaultMarkdown = `{{with frontmatter}}{{.}}
{{end}}{{.text}}
`

// Template phases reported by Error.
const (
	PhaseParse   = "parse"
	PhaseExecute = "execute"
)

// Error is a template failure. Parse errors are caller mistakes; execute
// errors depend on the document being rendered.
type Error struct {
	Name  string
	Phase string
	Err   error
}

func (e *Error) Error() string { return e.Phase + " template " + e.Name + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Template is a parsed template bound to the pesto helper functions:
//
//	frontmatter  the context's front matter as a `---` delimited YAML block ("" when absent)
//	yaml         any value encoded as YAML
type Template struct {
	tmpl   *gotemplate.Template
	fields [][]string
}

// New parses text as a template named name.
func New(name, text string) (*Template, error) {
	t, err := gotemplate.New(name).Funcs(gotemplate.FuncMap{
		"frontmatter": func() (string, error) { return "", nil },
		"yaml":        encodeYAML,
	}).Parse(text)
	if err != nil {
		return nil, &Error{Name: name, Phase: PhaseParse, Err: err}
	}
	return &Template{tmpl: t, fields: referencedFields(t)}, nil
}

// Execute renders the template against ctx. Null values at any depth, and
// field chains used by the template but absent from ctx, render as empty
// strings.
func (t *Template) Execute(ctx *value.Object) (string, error) {
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("clone template: %w", err)
	}
	tmpl.Funcs(gotemplate.FuncMap{
		"frontmatter": func() (string, error) { return frontMatter(ctx) },
	})

	data := blankNulls(ctx.Native()).(map[string]any)
	for _, chain := range t.fields {
		fillChain(data, chain)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", &Error{Name: t.tmpl.Name(), Phase: PhaseExecute, Err: err}
	}
	return b.String(), nil
}

func frontMatter(ctx *value.Object) (string, error) {
	fm, ok := ctx.Get(rule.FrontMatterKey)
	if !ok || fm.Kind() != value.KindObject || fm.Object().Len() == 0 {
		return "", nil
	}
	body, err := encodeYAML(fm.Object())
	if err != nil {
		return "", err
	}
	return "---\n" + body + "---", nil
}

func encodeYAML(v any) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return b.String(), nil
}

func blankNulls(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		for k, item := range t {
			t[k] = blankNulls(item)
		}
	case []any:
		for i, item := range t {
			t[i] = blankNulls(item)
		}
	}
	return v
}

// fillChain makes data.a.b.c resolvable for chain [a b c]: missing objects on
// the way are created and a missing leaf becomes "". A non-object on the way
// is left alone.
func fillChain(data map[string]any, chain []string) {
	m := data
	for i, key := range chain {
		next, ok := m[key]
		if i == len(chain)-1 {
			if !ok {
				m[key] = ""
			}
			return
		}
		if !ok {
			child := map[string]any{}
			m[key] = child
			m = child
			continue
		}
		child, isObj := next.(map[string]any)
		if !isObj {
			return
		}
		m = child
	}
}

// referencedFields collects the identifier chain of every field reference
// (`.a.b`, `$.a.b`) across all templates in the set, longest first so a short
// chain never blanks an object a longer one walks through.
func referencedFields(t *gotemplate.Template) [][]string {
	seen := make(map[string][]string)
	for _, tt := range t.Templates() {
		if tt.Tree != nil {
			collectFields(tt.Tree.Root, seen)
		}
	}
	fields := make([][]string, 0, len(seen))
	for _, chain := range seen {
		fields = append(fields, chain)
	}
	slices.SortFunc(fields, func(a, b []string) int { return len(b) - len(a) })
	return fields
}

func addChain(seen map[string][]string, chain []string) {
	seen[strings.Join(chain, ".")] = chain
}

func collectFields(node parse.Node, seen map[string][]string) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectFields(c, seen)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collectFields(c, seen)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			collectFields(a, seen)
		}
	case *parse.ChainNode:
		collectFields(n.Node, seen)
	case *parse.FieldNode:
		addChain(seen, n.Ident)
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			addChain(seen, n.Ident[1:])
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.TemplateNode:
		collectFields(n.Pipe, seen)
	}
}

func collectBranch(b *parse.BranchNode, seen map[string][]string) {
	collectFields(b.Pipe, seen)
	collectFields(b.List, seen)
	collectFields(b.ElseList, seen)
}
