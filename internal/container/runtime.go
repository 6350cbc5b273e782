// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a docker or podman runtime and runs one-shot
// containers with a host directory mounted, for tools that are easier to
// ship as an image than to install (pandoc with a TeX distribution).
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Mount binds a host directory into the container.
type Mount struct {
	HostDir      string
	ContainerDir string
}

// RunSpec describes a single container invocation.
type RunSpec struct {
	Image   string
	Mounts  []Mount
	WorkDir string   // working directory inside the container
	User    string   // "uid:gid" to run as; empty keeps the image default
	Args    []string // arguments passed after the image name
	Stdout  io.Writer
	Stderr  io.Writer
}

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the named image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run executes a container described by spec and removes it afterwards.
	Run(ctx context.Context, spec RunSpec) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, spec RunSpec) error {
	if err := r.exec.Run(ctx, r.bin, runArgs(spec), spec.Stdout, spec.Stderr); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, spec.Image, err)
	}
	return nil
}

// runArgs builds the "run" argument list for spec.
func runArgs(spec RunSpec) []string {
	args := []string{"run", "--rm"}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m.HostDir+":"+m.ContainerDir)
	}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	if spec.User != "" {
		args = append(args, "--user", spec.User)
	}
	args = append(args, spec.Image)
	return append(args, spec.Args...)
}

// runtimes lists the supported binaries in detection order with the
// subcommand each uses to check for a local image.
var runtimes = []struct {
	bin        string
	imageCheck []string
}{
	{binDocker, []string{"image", "inspect"}},
	{binPodman, []string{"image", "exists"}},
}

var defaultExec = &osExecutor{}

// newRuntime returns the runtime for bin, or nil when bin is unsupported.
func newRuntime(bin string, exec executor) *runtime {
	for _, c := range runtimes {
		if c.bin == bin {
			return &runtime{bin: c.bin, imageCheckCmd: c.imageCheck, exec: exec}
		}
	}
	return nil
}

// Select returns the runtime called name, or when name is empty the first
// operational one, docker before podman. An unknown or unavailable
// runtime is an error.
func Select(ctx context.Context, name string) (Runtime, error) {
	return selectRuntime(ctx, defaultExec, name)
}

func selectRuntime(ctx context.Context, exec executor, name string) (Runtime, error) {
	known := false
	for _, c := range runtimes {
		if name != "" && c.bin != name {
			continue
		}
		known = true
		if rt := newRuntime(c.bin, exec); rt.Available(ctx) {
			return rt, nil
		}
	}

	switch {
	case name == "":
		return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational", binDocker, binPodman)
	case !known:
		return nil, fmt.Errorf("unsupported container runtime %q: use %s or %s", name, binDocker, binPodman)
	default:
		return nil, fmt.Errorf("container runtime %s not found or not operational", name)
	}
}
