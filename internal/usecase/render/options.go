package render

import (
	"errors"

	domrender "github.com/kailas-cloud/pesto/internal/domain/render"
	"github.com/kailas-cloud/pesto/internal/domain/rule"
)

// Options is the unparsed form of the render settings as they arrive from flags,
// config or an HTTP request.
type Options struct {
	FileName          string
	FrontMatter       bool
	FrontMatterFields []string
	Aliases           []string
	Defaults          []string
	Overrides         []string
	KeepAnnotations   bool
	DryRun            bool
	Overwrite         bool
}

// Spec parses the options, reporting every malformed rule and the filename
// pattern error together.
func (o Options) Spec() (domrender.Spec, error) {
	name := o.FileName
	if name == "" {
		name = domrender.DefaultFileName
	}
	pattern, patternErr := domrender.ParsePattern(name)
	rules, rulesErr := rule.NewSet(o.Aliases, o.Defaults, o.Overrides, o.FrontMatter, o.FrontMatterFields)
	if err := errors.Join(patternErr, rulesErr); err != nil {
		return domrender.Spec{}, err
	}
	return domrender.Spec{
		FileName:        pattern,
		Rules:           rules,
		KeepAnnotations: o.KeepAnnotations,
		DryRun:          o.DryRun,
		Overwrite:       o.Overwrite,
	}, nil
}
