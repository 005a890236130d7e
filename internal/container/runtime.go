// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a docker or podman runtime and uses it to run
// one-shot conversion containers and the long-running annotator server.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Server describes a detached, port-publishing container such as the
// annotator server.
type Server struct {
	Name  string
	Image string

	// Port is published on the same host port.
	Port int

	// Env is passed with -e, in key order.
	Env map[string]string
}

// Runtime is a container engine reached through its CLI.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// ImageExists returns nil when image is present locally.
	ImageExists(image string) error

	// Run executes image once with stdin and stdout attached.
	Run(image string, stdin io.Reader, stdout io.Writer) error

	// Start runs s detached. The container is removed when it stops.
	Start(s Server) error

	// Running reports whether a container called name is up.
	Running(name string) (bool, error)

	// Stop stops the named container.
	Stop(name string) error
}

// commander runs CLI commands. Tests substitute a scripted one.
type commander interface {
	LookPath(file string) (string, error)
	Run(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osCommander struct{}

func (osCommander) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osCommander) Run(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// engine implements Runtime for one CLI. Docker and podman differ only in
// the binary and the image check subcommand.
type engine struct {
	bin        string
	imageCheck []string
	cmd        commander
	log        *zap.Logger
}

func newEngine(bin string, cmd commander, log *zap.Logger) *engine {
	e := &engine{bin: bin, cmd: cmd, log: log}
	switch bin {
	case binPodman:
		e.imageCheck = []string{"image", "exists"}
	default:
		e.imageCheck = []string{"image", "inspect"}
	}
	return e
}

func (e *engine) run(stdin io.Reader, stdout io.Writer, args ...string) error {
	e.log.Debug("container command", zap.String("bin", e.bin), zap.Strings("args", args))
	return e.cmd.Run(e.bin, args, stdin, stdout)
}

func (e *engine) Name() string { return e.bin }

func (e *engine) operational() bool {
	if _, err := e.cmd.LookPath(e.bin); err != nil {
		return false
	}
	return e.run(nil, io.Discard, "info") == nil
}

func (e *engine) ImageExists(image string) error {
	args := append(append([]string{}, e.imageCheck...), image)
	if err := e.run(nil, io.Discard, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Run(image string, stdin io.Reader, stdout io.Writer) error {
	if err := e.run(stdin, stdout, "run", "--rm", "-i", image); err != nil {
		return fmt.Errorf("running %s container %s: %w", e.bin, image, err)
	}
	return nil
}

func (e *engine) Start(s Server) error {
	if s.Name == "" || s.Image == "" {
		return fmt.Errorf("container name and image are required")
	}
	args := []string{"run", "-d", "--rm", "--name", s.Name}
	if s.Port > 0 {
		args = append(args, "-p", fmt.Sprintf("%d:%d", s.Port, s.Port))
	}
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+s.Env[k])
	}
	args = append(args, s.Image)

	if err := e.run(nil, io.Discard, args...); err != nil {
		return fmt.Errorf("starting %s container %s from %s: %w", e.bin, s.Name, s.Image, err)
	}
	return nil
}

func (e *engine) Running(name string) (bool, error) {
	var out bytes.Buffer
	if err := e.run(nil, &out, "ps", "-q", "--filter", "name=^"+name+"$"); err != nil {
		return false, fmt.Errorf("listing %s containers: %w", e.bin, err)
	}
	return strings.TrimSpace(out.String()) != "", nil
}

func (e *engine) Stop(name string) error {
	if err := e.run(nil, io.Discard, "stop", name); err != nil {
		return fmt.Errorf("stopping %s container %s: %w", e.bin, name, err)
	}
	return nil
}

// DetectRuntime returns docker when it answers "info", otherwise podman.
// A nil logger disables logging.
func DetectRuntime(log *zap.Logger) (Runtime, error) {
	return detect(osCommander{}, log)
}

func detect(cmd commander, log *zap.Logger) (Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, bin := range []string{binDocker, binPodman} {
		if e := newEngine(bin, cmd, log); e.operational() {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman)
}
