package rustc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/albertocavalcante/go-rustversion/version"
)

// fakeRustc writes an executable shell script standing in for the compiler.
func fakeRustc(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}
	path := filepath.Join(t.TempDir(), "rustc")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake rustc: %v", err)
	}
	return path
}

func TestProbeRun(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		verbose bool
		want    version.Version
	}{
		{
			name: "stable",
			body: `echo "rustc 1.34.2 (6c2484dc3 2019-05-13)"`,
			want: version.New(34, 2, version.Stable()),
		},
		{
			name: "nightly",
			body: `echo "rustc 1.36.0-nightly (8dd4aae9a 2019-04-27)"`,
			want: version.New(36, 0, version.Nightly(version.MustDate("2019-04-27"))),
		},
		{
			name: "warning lines before version",
			body: "echo 'warning: something odd'\necho 'rustc 1.35.0-beta.2 (abc 2019-05-01)'",
			want: version.New(35, 0, version.Beta()),
		},
		{
			name: "verbose",
			body: `if [ "$1" = "-vV" ]; then
  echo "rustc 1.36.0-nightly (8dd4aae9a 2019-04-27)"
  echo "binary: rustc"
  echo "commit-date: 2019-04-27"
  echo "release: 1.36.0-nightly"
else
  exit 3
fi`,
			verbose: true,
			want:    version.New(36, 0, version.Nightly(version.MustDate("2019-04-27"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Probe{Path: fakeRustc(t, tt.body), Verbose: tt.verbose}
			got, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "missing compiler",
			path:     filepath.Join(os.TempDir(), "definitely-not-rustc-7f3a"),
			wantKind: KindExec,
			wantMsg:  "failed to run `",
		},
		{
			name:     "exit status",
			body:     "echo 'error: no toolchain' >&2\nexit 1",
			wantKind: KindExec,
			wantMsg:  "no toolchain",
		},
		{
			name:     "not utf8",
			body:     `printf 'rustc \377\376\n'`,
			wantKind: KindUTF8,
			wantMsg:  "not valid UTF-8",
		},
		{
			name:     "garbage",
			body:     `echo "cargo 1.34.0"`,
			wantKind: KindParse,
			wantMsg:  "please file an issue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = fakeRustc(t, tt.body)
			}
			_, err := Probe{Path: path}.Run(context.Background())
			var rerr *Error
			if !errors.As(err, &rerr) {
				t.Fatalf("Run() error = %v (%T), want *Error", err, err)
			}
			if rerr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", rerr.Kind, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
			if got := IsExec(err); got != (tt.wantKind == KindExec) {
				t.Errorf("IsExec() = %v", got)
			}
		})
	}
}

func TestProbeRun_ParseErrorUnwraps(t *testing.T) {
	path := fakeRustc(t, `echo "rustc 2.0.0"`)
	_, err := Probe{Path: path}.Run(context.Background())
	var perr *version.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want it to wrap *version.ParseError", err)
	}
}

func TestProbeRun_Timeout(t *testing.T) {
	path := fakeRustc(t, "exec sleep 5")
	start := time.Now()
	_, err := Probe{Path: path, Timeout: 50 * time.Millisecond}.Run(context.Background())
	if !IsExec(err) {
		t.Fatalf("error = %v, want exec error", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run() took %v, timeout not applied", elapsed)
	}
}

func TestCompiler(t *testing.T) {
	t.Setenv(EnvVar, "")
	if got := Compiler(); got != DefaultCompiler {
		t.Errorf("Compiler() = %q, want %q", got, DefaultCompiler)
	}
	t.Setenv(EnvVar, "/opt/rust/bin/rustc")
	if got := Compiler(); got != "/opt/rust/bin/rustc" {
		t.Errorf("Compiler() = %q, want $RUSTC", got)
	}
}

func TestProbeDefaultsToEnv(t *testing.T) {
	t.Setenv(EnvVar, fakeRustc(t, `echo "rustc 1.40.0 (73528e339 2019-12-16)"`))
	got, err := Probe{}.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if want := version.New(40, 0, version.Stable()); got != want {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	counter := filepath.Join(dir, "count")
	path := fakeRustc(t, `echo run >> "`+counter+`"
sleep 0.1
echo "rustc 1.34.2 (6c2484dc3 2019-05-13)"`)

	c := NewCache()
	p := Probe{Path: path}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Version(context.Background(), p)
			if err != nil {
				t.Errorf("Version() error: %v", err)
				return
			}
			if v.Minor != 34 {
				t.Errorf("Version() = %v", v)
			}
		}()
	}
	wg.Wait()

	if _, err := c.Version(context.Background(), p); err != nil {
		t.Fatalf("Version() error: %v", err)
	}

	data, err := os.ReadFile(counter)
	if err != nil {
		t.Fatal(err)
	}
	if runs := strings.Count(string(data), "run"); runs != 1 {
		t.Errorf("compiler ran %d times, want 1", runs)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCache_FailureNotStored(t *testing.T) {
	path := fakeRustc(t, "exit 1")
	c := NewCache()
	for range 2 {
		if _, err := c.Version(context.Background(), Probe{Path: path}); !IsExec(err) {
			t.Fatalf("Version() error = %v, want exec error", err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_ContextCanceled(t *testing.T) {
	path := fakeRustc(t, "exec sleep 5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCache().Version(ctx, Probe{Path: path, Timeout: 100 * time.Millisecond})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Version() error = %v, want context.Canceled", err)
	}
}
