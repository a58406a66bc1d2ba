// Command wgmem dispatches the threadgroup memory kernel once and prints
// its output.
//
// On success it prints "Output: <n>" on stdout. On failure it prints
// "wgmem: <phase>: <cause>" on stderr and exits with status 1.
//
// Environment:
//
//	WGMEM_BACKEND  backend name (native, software); empty selects the default
//	WGMEM_DEBUG    set to 1 for debug logging on stderr
//	WGMEM_LANG     language for numbers in the debug summary; falls back to LANG
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/wgmem"
	_ "github.com/gogpu/wgmem/backend/native"
	_ "github.com/gogpu/wgmem/backend/software"
)

// summaryLanguages are the locales the debug summary formats numbers for.
var summaryLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.German,
	language.French,
	language.Japanese,
})

func printer(getenv func(string) string) *message.Printer {
	tag, _ := language.MatchStrings(summaryLanguages, getenv("WGMEM_LANG"), getenv("LANG"))
	return message.NewPrinter(tag)
}

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr, os.Getenv))
}

func run(ctx context.Context, stdout, stderr io.Writer, getenv func(string) string) int {
	level := slog.LevelWarn
	if getenv("WGMEM_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	wgmem.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer wgmem.SetLogger(nil)

	var opts []wgmem.RunOption
	if name := getenv("WGMEM_BACKEND"); name != "" {
		opts = append(opts, wgmem.WithBackend(name))
	}

	res, err := wgmem.Run(ctx, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "wgmem: %v\n", err)
		return 1
	}
	if level == slog.LevelDebug {
		p := printer(getenv)
		wgmem.Logger().Debug(p.Sprintf("%d threads in %d groups on %s, %v",
			res.Geometry.Threads(), res.Geometry.Grid.Count(), res.Device, res.Elapsed))
	}
	fmt.Fprintf(stdout, "Output: %d\n", res.Output)
	return 0
}
