package shader

import (
	"errors"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Options configures compilation.
type Options struct {
	// Validate runs naga IR validation after lowering.
	Validate bool
}

// DefaultOptions returns the options used by Compile.
func DefaultOptions() Options {
	return Options{Validate: true}
}

// Library is a compiled shader module.
type Library struct {
	source Source
	module *ir.Module
}

// Compile compiles src with default options.
func Compile(src Source) (*Library, error) {
	return CompileWithOptions(src, DefaultOptions())
}

// CompileWithOptions compiles src through the naga front end.
// Any failure is returned as a *CompileError.
func CompileWithOptions(src Source, opts Options) (*Library, error) {
	if src.Text == "" {
		return nil, &CompileError{Label: src.Label, Stage: "parse", Err: errors.New("empty source")}
	}

	ast, err := naga.Parse(src.Text)
	if err != nil {
		return nil, &CompileError{Label: src.Label, Stage: "parse", Err: err}
	}

	module, err := naga.LowerWithSource(ast, src.Text)
	if err != nil {
		return nil, &CompileError{Label: src.Label, Stage: "lower", Err: err}
	}

	if opts.Validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, &CompileError{Label: src.Label, Stage: "validate", Err: err}
		}
		if len(verrs) > 0 {
			return nil, &CompileError{Label: src.Label, Stage: "validate", Err: verrs[0]}
		}
	}

	return &Library{source: src, module: module}, nil
}

// Source returns the source the library was compiled from.
func (l *Library) Source() Source { return l.source }

// Module returns the naga IR module.
func (l *Library) Module() *ir.Module { return l.module }

// EntryPoints returns the names of all entry points in declaration order.
func (l *Library) EntryPoints() []string {
	names := make([]string, 0, len(l.module.EntryPoints))
	for _, ep := range l.module.EntryPoints {
		names = append(names, ep.Name)
	}
	return names
}

// Function resolves the named entry point. There is no function-constant
// specialization; the entry point is used as declared.
func (l *Library) Function(name string) (*Function, error) {
	for i := range l.module.EntryPoints {
		ep := &l.module.EntryPoints[i]
		if ep.Name != name {
			continue
		}
		return newFunction(l, ep), nil
	}
	return nil, &EntryPointNotFoundError{
		Name:      name,
		Label:     l.source.Label,
		Available: l.EntryPoints(),
	}
}
