package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultGoBinary = "go"
	buildModule     = "module structcheck.candidate\n\ngo 1.24\n"
	executableName  = "candidate"
)

type toolchain struct {
	goBinary string
	workDir  string
	goCache  string
}

func newToolchain(opts Options) *toolchain {
	tc := &toolchain{goBinary: opts.GoBinary, workDir: opts.WorkDir, goCache: opts.GoCache}
	if tc.goBinary == "" {
		tc.goBinary = defaultGoBinary
	}
	if tc.goCache == "" {
		if _, err := os.UserCacheDir(); err != nil {
			tc.goCache = filepath.Join(os.TempDir(), "structcheck-gocache")
		}
	}
	return tc
}

func (tc *toolchain) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, tc.goBinary, args...)
	cmd.Dir = dir
	// compiler subprocesses may outlive a killed go command
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=local", "GOWORK=off", "GO111MODULE=on", "CGO_ENABLED=0", "GOFLAGS=")
	if tc.goCache != "" {
		cmd.Env = append(cmd.Env, "GOCACHE="+tc.goCache)
	}
	return cmd
}

// Executable is a program built together with its driver files. Close removes
// the build directory.
type Executable struct {
	Path string
	Dir  string
}

// Close removes the build directory.
func (e *Executable) Close() error {
	return os.RemoveAll(e.Dir)
}

// Build compiles the program together with files, keyed by file name, into
// an executable in a fresh work directory. Compiler messages about the
// submitted source keep its line numbers.
func (p *Program) Build(ctx context.Context, files map[string]string) (*Executable, error) {
	dir, err := os.MkdirTemp(p.tc.workDir, "structcheck-build-")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CheckSystemError, "create build directory failed")
	}
	sources := map[string]string{
		"go.mod":   buildModule,
		SourceName: rewritePackage(p),
	}
	for name, content := range files {
		if _, ok := sources[name]; ok || filepath.Base(name) != name {
			_ = os.RemoveAll(dir)
			return nil, appErr.Newf(appErr.CheckSystemError, "invalid build file name %q", name)
		}
		sources[name] = content
	}
	for name, content := range sources {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			_ = os.RemoveAll(dir)
			return nil, appErr.Wrapf(err, appErr.CheckSystemError, "write %s failed", name)
		}
	}

	exe := &Executable{Path: filepath.Join(dir, executableName), Dir: dir}
	if runtime.GOOS == "windows" {
		exe.Path += ".exe"
	}
	start := time.Now()
	out, err := p.tc.command(ctx, dir, "build", "-trimpath", "-o", exe.Path, ".").CombinedOutput()
	if err != nil {
		_ = exe.Close()
		return nil, buildError(ctx, err, out)
	}
	logger.Debug(ctx, "candidate built",
		zap.String("program_id", p.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return exe, nil
}

func buildError(ctx context.Context, err error, out []byte) error {
	if ctx.Err() != nil {
		return appErr.Wrapf(err, appErr.TimeLimitExceeded, "building the structure exceeded the time limit")
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
		return appErr.Wrapf(err, appErr.CheckSystemError, "go toolchain is not available: %v", err)
	}
	diags := parseBuildOutput(out)
	if len(diags) == 0 {
		return appErr.Wrapf(err, appErr.CheckSystemError, "go build failed: %s", strings.TrimSpace(string(out)))
	}
	return compileError(appErr.CompilationError, diags)
}

var buildLine = regexp.MustCompile(`^(?:\./)?([^:\s]+\.go):(\d+):(?:(\d+):)? (.*)$`)

// parseBuildOutput keeps compiler messages. Messages about files other than
// the submission are reported without a position.
func parseBuildOutput(out []byte) Diagnostics {
	var diags Diagnostics
	for _, line := range bytes.Split(out, []byte("\n")) {
		text := strings.TrimSpace(string(line))
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		m := buildLine.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if m[1] != SourceName {
			diags = append(diags, Diagnostic{Message: fmt.Sprintf("%s:%s: %s", m[1], m[2], m[4])})
			continue
		}
		d := Diagnostic{Message: m[4]}
		d.Line, _ = strconv.Atoi(m[2])
		d.Column, _ = strconv.Atoi(m[3])
		diags = append(diags, d)
	}
	return diags
}

// Warm builds pkgs and the allowed imports once so later builds hit the
// build cache.
func (l *Loader) Warm(ctx context.Context, pkgs ...string) error {
	args := append([]string{"build"}, l.AllowedImports()...)
	args = append(args, pkgs...)
	out, err := l.tc.command(ctx, os.TempDir(), args...).CombinedOutput()
	if err != nil {
		return appErr.Wrapf(err, appErr.CheckSystemError, "warm build cache failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}
