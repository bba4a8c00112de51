// Package main provides the entry point for the docflow CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lerboi/FileManagement-sub001/internal/cli"
	"github.com/lerboi/FileManagement-sub001/internal/signal"
)

// Set via ldflags at build time.
var (
	version = "" //nolint:gochecknoglobals // set by ldflags
	commit  = "" //nolint:gochecknoglobals // set by ldflags
	date    = "" //nolint:gochecknoglobals // set by ldflags
)

func main() {
	h := signal.NewHandler(context.Background(), func(os.Signal) {
		_, _ = fmt.Fprintln(os.Stderr, "forced shutdown")
		os.Exit(1)
	})

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	h.Stop()

	// Cobra has already printed err.
	if code := h.ExitCode(); code != 0 {
		os.Exit(code)
	}
	os.Exit(cli.ExitCodeForError(err))
}
