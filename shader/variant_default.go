//go:build !broken

package shader

// defaultVariant is the variant used when the "broken" build tag is absent.
const defaultVariant = VariantLocal
