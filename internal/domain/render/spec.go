package render

import "github.com/kailas-cloud/pesto/internal/domain/rule"

// Spec is the rendering configuration applied to every surviving document.
type Spec struct {
	FileName        Pattern
	Rules           rule.Set
	KeepAnnotations bool
	DryRun          bool
	Overwrite       bool
}
