package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	homedir "github.com/mitchellh/go-homedir"

	rustversion "github.com/albertocavalcante/go-rustversion"
)

const (
	nightlyText = "rustc 1.36.0-nightly (8dd4aae9a 2019-04-27)"
	stableText  = "rustc 1.40.0 (73528e339 2019-12-16)"
)

// execute runs the CLI with an empty home directory and environment.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RUSTC", "")
	t.Setenv("RUSTVERSION_RUSTC", "")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{nightlyText, "1.36.0-nightly (2019-04-27)\n"},
		{stableText, "1.40.0\n"},
		{"rustc 1.35.0-beta.3 (c13114dc8 2019-04-27)", "1.35.0-beta\n"},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.want), func(t *testing.T) {
			got, _, err := execute(t, "", "--version-text", tt.text, "version")
			if err != nil {
				t.Fatalf("version error: %v", err)
			}
			if got != tt.want {
				t.Errorf("version = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "", "--version-text", nightlyText, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got versionJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	want := versionJSON{
		Version: "1.36.0-nightly (2019-04-27)",
		Minor:   36,
		Channel: "nightly",
		Date:    "2019-04-27",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("version --json mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigSources(t *testing.T) {
	t.Run("config file in home", func(t *testing.T) {
		homedir.DisableCache = true
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("RUSTC", "")
		cfg := "version-text: \"" + stableText + "\"\nloglevel: warn\n"
		if err := os.WriteFile(filepath.Join(home, ".rustversion.yaml"), []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}

		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetArgs([]string{"version"})
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := out.String(); got != "1.40.0\n" {
			t.Errorf("version = %q, want %q", got, "1.40.0\n")
		}
	})

	t.Run("explicit config", func(t *testing.T) {
		path := writeFile(t, "cfg.yaml", "version-text: \""+nightlyText+"\"\n")
		out, _, err := execute(t, "", "--config", path, "version")
		if err != nil {
			t.Fatal(err)
		}
		if out != "1.36.0-nightly (2019-04-27)\n" {
			t.Errorf("version = %q", out)
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		_, _, err := execute(t, "", "--config", missing, "version")
		if err == nil || !strings.Contains(err.Error(), "reading config") {
			t.Errorf("error = %v, want config read error", err)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("RUSTVERSION_VERSION_TEXT", stableText)
		out, _, err := execute(t, "", "version")
		if err != nil {
			t.Fatal(err)
		}
		if out != "1.40.0\n" {
			t.Errorf("version = %q, want %q", out, "1.40.0\n")
		}
	})

	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("RUSTVERSION_VERSION_TEXT", stableText)
		out, _, err := execute(t, "", "--version-text", nightlyText, "version")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(out, "1.36.0-nightly") {
			t.Errorf("version = %q, want the flag's version", out)
		}
	})
}

func TestLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--version-text", stableText, "--loglevel", "loud", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v, want invalid log level", err)
	}

	_, stderr, err := execute(t, "", "--version-text", stableText, "-l", "debug", "eval", "stable")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "evaluated selector") {
		t.Errorf("debug log missing from stderr:\n%s", stderr)
	}
}

func TestEvalCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"single", []string{"since(1.31)"}, "true\n", false},
		{"several", []string{"stable", "nightly", "before(1.41)"}, "true\nfalse\ntrue\n", false},
		{"false without exit code", []string{"beta"}, "false\n", false},
		{"syntax error", []string{"since(1.31"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--version-text", stableText, "eval"}, tt.args...)
			got, _, err := execute(t, "", args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("eval error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("eval = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalCmd_ExitCode(t *testing.T) {
	_, _, err := execute(t, "", "--version-text", stableText, "eval", "--exit-code", "stable", "nightly")
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Errorf("error = %v, want exit status 1", err)
	}

	if _, _, err := execute(t, "", "--version-text", stableText, "eval", "--exit-code", "stable"); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestEvalCmd_MinVer(t *testing.T) {
	out, _, err := execute(t, "", "--version-text", stableText, "eval", "minver(1.40)", "since(1.30)")
	if !errors.Is(err, rustversion.ErrContradiction) {
		t.Errorf("error = %v, want ErrContradiction", err)
	}
	if out != "true\n" {
		t.Errorf("output = %q, want only the minver result", out)
	}
}

func TestRun(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", t.TempDir())
	ctx := context.Background()
	if code := run(ctx, []string{"--version-text", stableText, "eval", "--exit-code", "nightly"}); code != 1 {
		t.Errorf("run(false selector) = %d, want 1", code)
	}
	if code := run(ctx, []string{"--version-text", "cargo 1.0", "version"}); code != 1 {
		t.Errorf("run(bad version) = %d, want 1", code)
	}
	if code := run(ctx, []string{"--version-text", stableText, "eval", "--exit-code", "stable"}); code != 0 {
		t.Errorf("run(true selector) = %d, want 0", code)
	}
}

const rustSource = `#[rustversion::nightly]
fn on_nightly() {}

#[rustversion::since(1.31)]
fn modern() {}
`

func TestExpandCmd(t *testing.T) {
	path := writeFile(t, "lib.rs", rustSource)

	out, _, err := execute(t, "", "--version-text", stableText, "expand", path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "\nfn modern() {}\n"; out != want {
		t.Errorf("expand = %q, want %q", out, want)
	}
	if got := readFile(t, path); got != rustSource {
		t.Errorf("file changed without -w:\n%s", got)
	}
}

func TestExpandCmd_Write(t *testing.T) {
	path := writeFile(t, "lib.rs", rustSource)

	out, _, err := execute(t, "", "--version-text", nightlyText, "expand", "-w", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("unexpected stdout with -w: %q", out)
	}
	want := "fn on_nightly() {}\n\nfn modern() {}\n"
	if got := readFile(t, path); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestExpandCmd_Stdin(t *testing.T) {
	out, _, err := execute(t, "#[rustversion::stable]\nfn f() {}\n", "--version-text", stableText, "expand", "-")
	if err != nil {
		t.Fatal(err)
	}
	if out != "fn f() {}\n" {
		t.Errorf("expand = %q", out)
	}

	_, _, err = execute(t, "", "--version-text", stableText, "expand", "-w", "-")
	if err == nil || !strings.Contains(err.Error(), "standard input") {
		t.Errorf("error = %v, want stdin write error", err)
	}
}

func TestExpandCmd_Failure(t *testing.T) {
	path := writeFile(t, "lib.rs", "#[rustversion::since(1.x)]\nfn f() {}\n")

	out, _, err := execute(t, "", "--version-text", stableText, "expand", path)
	if err == nil || !strings.Contains(err.Error(), "expansion failed") {
		t.Errorf("error = %v, want expansion failure", err)
	}
	if !strings.Contains(out, "compile_error!") {
		t.Errorf("output lacks compile_error!: %q", out)
	}
}

const buildFile = `load("@rules_rust//rust:defs.bzl", "rust_library")

# rustversion: nightly
rust_library(
    name = "unstable",
    srcs = ["unstable.rs"],
)

rust_library(
    name = "core",
    srcs = ["core.rs"],
)
`

func TestBazelFilterCmd(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name, "BUILD.bazel")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(buildFile), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	args := append([]string{"--version-text", stableText, "bazel-filter", "-w", "-j", "2"}, paths...)
	if _, _, err := execute(t, "", args...); err != nil {
		t.Fatal(err)
	}
	for _, path := range paths {
		got := readFile(t, path)
		if strings.Contains(got, "unstable") || !strings.Contains(got, `"core"`) {
			t.Errorf("%s not filtered:\n%s", path, got)
		}
	}
}

func TestBazelFilterCmd_List(t *testing.T) {
	path := writeFile(t, "BUILD", buildFile)

	out, _, err := execute(t, "", "--version-text", nightlyText, "bazel-filter", "--list", path)
	if err != nil {
		t.Fatal(err)
	}
	want := path + ":4:1\trust_library\tunstable\tkept\n"
	if out != want {
		t.Errorf("list = %q, want %q", out, want)
	}
	if got := readFile(t, path); got != buildFile {
		t.Errorf("file changed by --list")
	}
}

func TestBazelFilterCmd_Failure(t *testing.T) {
	path := writeFile(t, "BUILD", "# rustversion: since(\ncc_library(name = \"x\")\n")

	out, _, err := execute(t, "", "--version-text", stableText, "bazel-filter", path)
	if err == nil || !strings.Contains(err.Error(), "filtering failed") {
		t.Errorf("error = %v, want filtering failure", err)
	}
	if !strings.Contains(out, "fail(") {
		t.Errorf("output lacks fail(): %q", out)
	}
}
