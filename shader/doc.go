// Package shader supplies the two compute kernel variants and compiles them
// with naga into reflected entry points.
//
// Both variants implement the same kernel: thread 0 of each threadgroup
// publishes a per-group word into threadgroup memory, every thread waits on a
// workgroup barrier and increments the output counter when it observes the
// published value. A correct dispatch of 10 groups of 96 threads therefore
// reports 960.
//
// The variants differ only in how the kernel body reaches the threadgroup
// word:
//   - [VariantArg] passes it to the kernel body as an explicit parameter
//   - [VariantLocal] references the declaration directly
//
// The default variant is fixed at build time. Building with the "broken" tag
// selects [VariantArg]; without it [VariantLocal] is used.
//
// Compilation runs the naga front end (parse, lower, validate) and keeps the
// resulting IR module for reflection:
//
//	lib, err := shader.Compile(shader.Default())
//	if err != nil {
//	    return err
//	}
//	fn, err := lib.Function("entry_point")
//	if err != nil {
//	    return err
//	}
//	for _, tg := range fn.Threadgroup() {
//	    fmt.Println(tg.Index, tg.Length)
//	}
package shader
