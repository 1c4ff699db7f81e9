package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/vizier/internal/config"
)

func setHomes(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template must decode: %v", err)
	}
	if cfg.App.DBPath != nil || cfg.Colors.Left != nil || cfg.Anaglyph.Size != nil {
		t.Fatalf("template values must be commented out: %+v", cfg)
	}
}

func TestExercisesListsCatalog(t *testing.T) {
	setHomes(t)
	out, err := execute(t, "exercises")
	if err != nil {
		t.Fatalf("exercises: %v", err)
	}
	for _, name := range []string{"anaglyph", "depth", "recognition"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}

func TestUsersCalibrateAndExport(t *testing.T) {
	dir := setHomes(t)

	if _, err := execute(t, "users", "add", "jdoe", "--first", "Jane", "--last", "Doe"); err != nil {
		t.Fatalf("users add: %v", err)
	}
	out, err := execute(t, "users", "list")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	if !strings.Contains(out, "* jdoe") || !strings.Contains(out, "Jane Doe") {
		t.Fatalf("expected active jdoe, got:\n%s", out)
	}
	if _, err := execute(t, "users", "use", "nobody"); err == nil {
		t.Fatalf("expected error for unknown user")
	}

	out, err = execute(t, "calibrate")
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if !strings.Contains(out, "(default)") {
		t.Fatalf("expected default calibration, got %q", out)
	}
	out, err = execute(t, "calibrate", "--left", "wong:blue", "--right", "red")
	if err != nil {
		t.Fatalf("calibrate set: %v", err)
	}
	if !strings.Contains(out, "left #56b4e9") || !strings.Contains(out, "right #ff1919") || !strings.Contains(out, "(stored)") {
		t.Fatalf("unexpected calibration output %q", out)
	}
	out, err = execute(t, "calibrate", "--swap")
	if err != nil {
		t.Fatalf("calibrate swap: %v", err)
	}
	if !strings.Contains(out, "left #ff1919") {
		t.Fatalf("expected swapped colors, got %q", out)
	}
	if _, err := execute(t, "calibrate", "--left", "red", "--right", "red"); err == nil {
		t.Fatalf("expected error for equal colors")
	}

	png := filepath.Join(dir, "out.png")
	if _, err := execute(t, "export", "-o", png, "--size", "40", "--seed", "3"); err != nil {
		t.Fatalf("export: %v", err)
	}
	info, err := os.Stat(png)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected png written: %v", err)
	}
}

func TestStatsPlainWithoutSessions(t *testing.T) {
	setHomes(t)
	if _, err := execute(t, "users", "add", "jdoe"); err != nil {
		t.Fatalf("users add: %v", err)
	}
	out, err := execute(t, "stats", "--plain")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "No sessions found.") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := execute(t, "stats", "--plain", "--since", "yesterday"); err == nil {
		t.Fatalf("expected invalid --since error")
	}
}
