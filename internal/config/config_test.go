package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"runtrace/internal/diag"
	"runtrace/internal/tracefile"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvOutDir, EnvFormat, EnvDebug} {
		t.Setenv(k, "")
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "runtrace.toml", `
out_dir = "traces"
format = "bin"
ignore = ["vendor/"]

[diag]
level = "info"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutDir != "traces" || cfg.MaxDepth != 10 || len(cfg.Ignore) != 1 {
		t.Fatalf("config: %+v", cfg)
	}
	if f, _ := cfg.TraceFormat(); f != tracefile.FormatBinary {
		t.Fatalf("format: %s", f)
	}
	dc, err := cfg.DiagConfig()
	if err != nil || dc.Level != diag.LevelInfo || dc.Mode != diag.ModeStream {
		t.Fatalf("diag config: %+v %v", dc, err)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "runtrace.yaml", "format: binaryv0\nmax_elements: 10\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Format != "binaryv0" || cfg.MaxElements != 10 || cfg.OutDir != "runtrace-out" {
		t.Fatalf("config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	tests := []struct {
		name, file, content, want string
	}{
		{"unknown toml key", "a.toml", "colour = 1\n", "unknown key"},
		{"unknown yaml key", "b.yaml", "colour: 1\n", "field colour not found"},
		{"bad format", "c.toml", "format = \"xml\"\n", "unknown trace format"},
		{"bad depth", "d.toml", "max_depth = 0\n", "max_depth"},
		{"bad diag level", "e.yaml", "diag:\n  level: loud\n", "invalid diag level"},
		{"bad extension", "f.ini", "", "unsupported config format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutDir, "/tmp/x")
	t.Setenv(EnvFormat, "binary")
	t.Setenv(EnvDebug, "1")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutDir != "/tmp/x" || cfg.Format != "binary" || cfg.Diag.Level != "debug" {
		t.Fatalf("config: %+v", cfg)
	}

	t.Setenv(EnvFormat, "nope")
	if _, err := Load(""); err == nil {
		t.Fatalf("invalid env format should fail validation")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "runtrace.yaml", "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path, ok, err := Find(nested)
	if err != nil || !ok || filepath.Base(path) != "runtrace.yaml" {
		t.Fatalf("find: %q %v %v", path, ok, err)
	}
}
