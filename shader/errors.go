package shader

import (
	"fmt"
	"strings"
)

// CompileError reports that kernel source failed to compile.
type CompileError struct {
	// Label names the source that failed.
	Label string
	// Stage is the front-end stage that rejected the source:
	// "parse", "lower" or "validate".
	Stage string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %s: %s: %v", e.Label, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// EntryPointNotFoundError reports that a compiled library has no entry
// point with the requested name.
type EntryPointNotFoundError struct {
	Name      string
	Label     string
	Available []string
}

func (e *EntryPointNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("shader %s: entry point %q not found (library has no entry points)", e.Label, e.Name)
	}
	return fmt.Sprintf("shader %s: entry point %q not found (have %s)",
		e.Label, e.Name, strings.Join(e.Available, ", "))
}
