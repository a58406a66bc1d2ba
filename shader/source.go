package shader

import (
	_ "embed"
	"fmt"
)

// EntryPoint is the kernel function name both variants export.
const EntryPoint = "entry_point"

// Variant identifies one of the kernel source variants.
type Variant uint8

const (
	// VariantLocal references threadgroup memory directly from the kernel body.
	VariantLocal Variant = iota
	// VariantArg passes threadgroup memory to the kernel body as a parameter.
	VariantArg
	// VariantCustom marks caller-supplied source text.
	VariantCustom
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantLocal:
		return "local"
	case VariantArg:
		return "arg"
	case VariantCustom:
		return "custom"
	default:
		return fmt.Sprintf("Variant(%d)", v)
	}
}

// ParseVariant returns the variant with the given name.
func ParseVariant(name string) (Variant, error) {
	switch name {
	case "local":
		return VariantLocal, nil
	case "arg":
		return VariantArg, nil
	case "custom":
		return VariantCustom, nil
	}
	return 0, fmt.Errorf("shader: unknown variant %q", name)
}

//go:embed wg_mem_as_local.wgsl
var wgMemAsLocal string

//go:embed wg_mem_as_arg.wgsl
var wgMemAsArg string

// Source is immutable kernel source text tagged with its variant.
type Source struct {
	Variant Variant
	Label   string
	Text    string
}

// ForVariant returns the embedded source of a built-in variant.
// It panics for VariantCustom, which has no embedded text.
func ForVariant(v Variant) Source {
	switch v {
	case VariantLocal:
		return Source{Variant: v, Label: "wg_mem_as_local", Text: wgMemAsLocal}
	case VariantArg:
		return Source{Variant: v, Label: "wg_mem_as_arg", Text: wgMemAsArg}
	default:
		panic(fmt.Sprintf("shader: no embedded source for variant %s", v))
	}
}

// Custom wraps caller-supplied WGSL text.
func Custom(label, text string) Source {
	return Source{Variant: VariantCustom, Label: label, Text: text}
}

// Default returns the source selected at build time.
func Default() Source {
	return ForVariant(defaultVariant)
}

// DefaultVariant reports the variant selected at build time.
func DefaultVariant() Variant {
	return defaultVariant
}

// Variants returns the built-in variants in a stable order.
func Variants() []Variant {
	return []Variant{VariantArg, VariantLocal}
}
