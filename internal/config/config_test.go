// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/moldrun/mold/internal/issue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when no file exists", path)
	}
	if cfg.Runtime != RuntimeNative || cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UseGit {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
runtime: "virtual"
use_git: true
environments: ["ci", "linux"]
strict_expressions: true
cache_dir: "/var/cache/mold"
ui: {
	verbose: true
	color_scheme: "dark"
}
`)
	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}
	if cfg.Runtime != RuntimeVirtual || !cfg.UseGit || !cfg.StrictExpressions {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !slices.Equal(cfg.Environments, []string{"ci", "linux"}) {
		t.Errorf("Environments = %v", cfg.Environments)
	}
	if cfg.CacheDir != "/var/cache/mold" || !cfg.UI.Verbose || cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("unexpected config: %+v", cfg)
	}
	// Keys the file does not set keep their defaults.
	if cfg.UI.Quiet {
		t.Error("expected quiet to keep its default")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown runtime":   `runtime: "container"`,
		"unknown field":     `colour: "red"`,
		"bad environment":   `environments: ["has space"]`,
		"wrong type":        `use_git: "yes"`,
		"bad color scheme":  `ui: {color_scheme: "neon"}`,
		"syntax error":      `runtime: `,
		"verbose and quiet": `ui: {verbose: true, quiet: true}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := writeConfig(t, content)
			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `runtime: "virtual"`)
	explicit := filepath.Join(dir, "config.cue")

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: explicit,
		ConfigDirPath:  t.TempDir(),
		IgnoreEnv:      true,
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != explicit || cfg.Runtime != RuntimeVirtual {
		t.Errorf("path = %q, runtime = %q", path, cfg.Runtime)
	}

	_, _, err = loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(dir, "missing.cue"),
		IgnoreEnv:      true,
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected a not found error, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{IgnoreEnv: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, `runtime: "native"`)
	t.Setenv("MOLD_RUNTIME", "virtual")
	t.Setenv("MOLD_USE_GIT", "true")
	t.Setenv("MOLD_ENVIRONMENTS", "ci,prod")
	t.Setenv("MOLD_UI_QUIET", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Runtime != RuntimeVirtual || !cfg.UseGit || !cfg.UI.Quiet {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !slices.Equal(cfg.Environments, []string{"ci", "prod"}) {
		t.Errorf("Environments = %v", cfg.Environments)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("MOLD_RUNTIME", "container")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Runtime = RuntimeVirtual
	want.Environments = []string{"ci"}
	want.DefaultFile = "build/mold.yaml"
	want.UI.Quiet = true

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	if err := Save(want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, GenerateCUE(want))
	}
	if got.Runtime != want.Runtime || got.DefaultFile != want.DefaultFile || !got.UI.Quiet ||
		!slices.Equal(got.Environments, want.Environments) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	wrote, err := CreateDefaultConfig(path)
	if err != nil || !wrote {
		t.Fatalf("CreateDefaultConfig() = %v, %v", wrote, err)
	}

	if err := os.WriteFile(path, []byte(`runtime: "virtual"`), 0o644); err != nil {
		t.Fatal(err)
	}
	wrote, err = CreateDefaultConfig(path)
	if err != nil || wrote {
		t.Fatalf("CreateDefaultConfig() on an existing file = %v, %v", wrote, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `runtime: "virtual"` {
		t.Error("existing config was overwritten")
	}
}

func TestGenerateJSON(t *testing.T) {
	t.Parallel()

	out, err := GenerateJSON(DefaultConfig())
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["runtime"] != "native" {
		t.Errorf("runtime = %v", decoded["runtime"])
	}
}

func TestProvider_Path(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `use_git: true`)
	path, err := NewProvider().Path(context.Background(), LoadOptions{ConfigDirPath: dir, IgnoreEnv: true})
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("Path() = %q", path)
	}
}
