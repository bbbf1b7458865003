// Replyscope CI
//
// Package main provides reproducible builds, tests and lint checks locally
// and in CI.
package main

import (
	"context"

	"dagger/replyscope/internal/dagger"
)

// Replyscope is the CI module for the replyscope CLI.
type Replyscope struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Replyscope CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".replyscope", "build", "tmp"]
	source *dagger.Directory,
) *Replyscope {
	return &Replyscope{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled for go-sqlite3, and the project source mounted.
func (r *Replyscope) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", r.Source)
}

// Test runs the unit tests via "go test"
//
// +check
func (r *Replyscope) Test(ctx context.Context) (string, error) {
	return r.goContainer().
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
