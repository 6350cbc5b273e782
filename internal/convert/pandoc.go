// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/papertex/internal/container"
)

const (
	// DefaultPandoc is the pandoc executable looked up on PATH.
	DefaultPandoc = "pandoc"
	// DefaultImage is the pandoc image used by the container backend.
	DefaultImage = "pandoc/latex:3.6"

	containerWorkDir = "/data"
)

// commandRunner runs name with args in dir and returns its stderr output
// alongside any error. Tests substitute it to avoid spawning pandoc.
type commandRunner func(ctx context.Context, dir, name string, args []string) (stderr string, err error)

func runCommand(ctx context.Context, dir, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// pandocArgs builds the argument list for converting src into dst. Both
// paths are relative to the source directory pandoc runs in.
func pandocArgs(src, dst string) []string {
	return []string{src, "-o", dst, "--from=latex", "--to=markdown"}
}

// relativeTarget expresses dstPath relative to srcDir. The output must live
// inside the source directory so \input and graphics paths resolve the
// same way for both backends.
func relativeTarget(srcDir, dstPath string) (string, error) {
	rel, err := filepath.Rel(srcDir, dstPath)
	if err != nil {
		return "", fmt.Errorf("resolving output path %s: %w", dstPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output %s is outside source directory %s", dstPath, srcDir)
	}
	return rel, nil
}

// PandocConverter runs a local pandoc binary.
type PandocConverter struct {
	// Bin is the pandoc executable (default "pandoc").
	Bin string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration

	run commandRunner
}

// NewPandocConverter returns a converter for the pandoc binary at bin,
// verifying that it can be found.
func NewPandocConverter(bin string, timeout time.Duration) (*PandocConverter, error) {
	if bin == "" {
		bin = DefaultPandoc
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("pandoc not available: %w", err)
	}
	return &PandocConverter{Bin: bin, Timeout: timeout, run: runCommand}, nil
}

// Name identifies the backend in status output.
func (p *PandocConverter) Name() string { return "pandoc" }

// Convert runs pandoc on srcPath, writing Markdown to dstPath. A non-zero
// exit is returned as an error carrying pandoc's stderr.
func (p *PandocConverter) Convert(ctx context.Context, srcPath, dstPath string) error {
	dir := filepath.Dir(srcPath)
	rel, err := relativeTarget(dir, dstPath)
	if err != nil {
		return err
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	run := p.run
	if run == nil {
		run = runCommand
	}
	bin := p.Bin
	if bin == "" {
		bin = DefaultPandoc
	}

	stderr, err := run(ctx, dir, bin, pandocArgs(filepath.Base(srcPath), rel))
	if err != nil {
		return commandError(srcPath, err, stderr)
	}
	return nil
}

// ContainerConverter runs pandoc inside a container image with the
// paper's directory mounted.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
	user    string
	timeout time.Duration
}

// NewContainerConverter verifies that image exists in rt before returning.
func NewContainerConverter(ctx context.Context, rt container.Runtime, image string, timeout time.Duration) (*ContainerConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("pandoc image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt, image: image, user: hostUser(), timeout: timeout}, nil
}

// hostUser is the "uid:gid" the container runs as, so files written into
// the mounted bundle stay owned by the caller. Empty where the platform
// has no numeric IDs.
func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}

// Name identifies the backend in status output.
func (c *ContainerConverter) Name() string { return c.runtime.Name() + ":" + c.image }

// Convert runs the pandoc image against srcPath, writing dstPath.
func (c *ContainerConverter) Convert(ctx context.Context, srcPath, dstPath string) error {
	hostDir, err := filepath.Abs(filepath.Dir(srcPath))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", srcPath, err)
	}
	absDst, err := filepath.Abs(dstPath)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dstPath, err)
	}
	rel, err := relativeTarget(hostDir, absDst)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	err = c.runtime.Run(ctx, container.RunSpec{
		Image:   c.image,
		Mounts:  []container.Mount{{HostDir: hostDir, ContainerDir: containerWorkDir}},
		WorkDir: containerWorkDir,
		User:    c.user,
		Args:    pandocArgs(filepath.Base(srcPath), filepath.ToSlash(rel)),
		Stderr:  &stderr,
	})
	if err != nil {
		return commandError(srcPath, err, stderr.String())
	}
	return nil
}

func commandError(srcPath string, err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("converting %s: %w", srcPath, err)
	}
	return fmt.Errorf("converting %s: %w: %s", srcPath, err, firstLine(msg))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
