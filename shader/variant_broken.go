//go:build broken

package shader

// defaultVariant is the variant selected by the "broken" build tag.
const defaultVariant = VariantArg
