package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/replyscope/internal/dagger"
)

// Build returns a directory holding the replyscope binary for the container
// platform. The SQLite history driver needs cgo, so there is no cross
// compilation matrix.
func (r *Replyscope) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	return r.goContainer().
		WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", "/out/", "./cli/replyscope"}).
		Directory("/out")
}

// BuildRelease compiles the binary with embedded version info
func (r *Replyscope) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/replyscope/replyscope/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/replyscope/replyscope/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/replyscope/replyscope/pkg/utils.Buildtime=%s'", time.Now().UTC().Format(time.RFC3339)),
	}

	return r.Build(ctx, strings.Join(ldflags, " "))
}
