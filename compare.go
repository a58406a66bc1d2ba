package wgmem

import (
	"context"
	"fmt"

	"github.com/gogpu/wgmem/shader"
)

// Comparison holds the results of both built-in variants run on the same
// device with the same geometry.
type Comparison struct {
	Arg   Result
	Local Result
}

// Diverged reports whether the variants produced different output.
func (c Comparison) Diverged() bool {
	return c.Arg.Output != c.Local.Output
}

func (c Comparison) String() string {
	return fmt.Sprintf("arg=%d local=%d diverged=%t", c.Arg.Output, c.Local.Output, c.Diverged())
}

// Compare runs the arg and local variants on one device. WithVariant and
// WithSource are ignored.
func Compare(ctx context.Context, opts ...RunOption) (Comparison, error) {
	o := defaultRunOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log()

	dev, release, err := resolveDevice(&o)
	if err != nil {
		return Comparison{}, phaseErr(PhaseDevice, err)
	}
	defer release()
	propagateLogger(dev, log)

	var c Comparison
	if c.Arg, err = run(ctx, dev, shader.ForVariant(shader.VariantArg), &o, log); err != nil {
		return c, fmt.Errorf("variant %s: %w", shader.VariantArg, err)
	}
	if c.Local, err = run(ctx, dev, shader.ForVariant(shader.VariantLocal), &o, log); err != nil {
		return c, fmt.Errorf("variant %s: %w", shader.VariantLocal, err)
	}
	if c.Diverged() {
		log.Warn("wgmem: variants diverged", "arg", c.Arg.Output, "local", c.Local.Output, "device", c.Arg.Device)
	}
	return c, nil
}
