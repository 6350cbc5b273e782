// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runFunc       func(name string, args []string, stdout, stderr io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, stdout, stderr io.Writer) error {
	if m.runFunc != nil {
		return m.runFunc(name, args, stdout, stderr)
	}
	return nil
}

func TestSelectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		want     string // requested runtime, empty for detection
		wantName string
		wantErr  string
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: "no container runtime available",
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "podman requested while docker works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			want:     "podman",
			wantName: "podman",
		},
		{
			name: "requested runtime unavailable",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			want:    "podman",
			wantErr: "container runtime podman not found",
		},
		{
			name:    "unknown runtime",
			exec:    &mockExecutor{},
			want:    "nerdctl",
			wantErr: `unsupported container runtime "nerdctl"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := selectRuntime(context.Background(), tt.exec, tt.want)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name: "docker image exists",
			bin:  "docker",
			cmds: map[string]bool{"docker image inspect pandoc/latex:3": true},
		},
		{
			name:    "docker image not found",
			bin:     "docker",
			cmds:    map[string]bool{},
			wantErr: true,
		},
		{
			name: "podman image exists",
			bin:  "podman",
			cmds: map[string]bool{"podman image exists pandoc/latex:3": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newRuntime(tt.bin, &mockExecutor{runnableCmds: tt.cmds})
			err := rt.ImageExists(context.Background(), "pandoc/latex:3")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "pandoc/latex:3") {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	var gotName string
	var gotArgs []string
	exec := &mockExecutor{
		runFunc: func(name string, args []string, stdout, stderr io.Writer) error {
			gotName, gotArgs = name, args
			_, _ = stdout.Write([]byte("ok"))
			return nil
		},
	}
	rt := newRuntime("podman", exec)

	var out bytes.Buffer
	err := rt.Run(context.Background(), RunSpec{
		Image:   "pandoc/latex:3",
		Mounts:  []Mount{{HostDir: "/tmp/paper", ContainerDir: "/data"}},
		WorkDir: "/data",
		User:    "1000:1000",
		Args:    []string{"main.tex", "-o", "main.md"},
		Stdout:  &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotName != "podman" {
		t.Errorf("binary = %q, want podman", gotName)
	}
	want := "run --rm -v /tmp/paper:/data -w /data --user 1000:1000 pandoc/latex:3 main.tex -o main.md"
	if got := strings.Join(gotArgs, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if out.String() != "ok" {
		t.Errorf("stdout = %q, want %q", out.String(), "ok")
	}
}

func TestRun_Failure(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(string, []string, io.Writer, io.Writer) error {
			return errors.New("exit status 64")
		},
	}
	err := newRuntime("docker", exec).Run(context.Background(), RunSpec{Image: "pandoc/latex:3"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "running docker container pandoc/latex:3") {
		t.Errorf("unexpected error: %v", err)
	}
}
