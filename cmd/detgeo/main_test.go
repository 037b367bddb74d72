package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ctofScript = `
(detector "ctof" :variation "rga")
(def sd (sensitive "ctof" :description "central tof" :identifiers "paddle" :bank-id 350))
(bank-row sd "paddle" "paddle number" 1 "Di")
(volume "ctof_mother" :type "Tube" :dims "25*cm 30*cm 50*cm 0*deg 360*deg" :material "G4_AIR" :visible false)
(volume "paddle_1" :mother "ctof_mother" :type "Box" :dims "1*cm 2*cm 40*cm" :pos (list 27.5 0 0)
        :material "scintillator" :sensitivity "ctof" :hit-type "ctof" :identity (identity sd 1))
`

const ctofSensitive = `
sensitive:
  - name: ctof
    description: central tof
    identifiers: paddle
    bankId: 350
    rows:
      - {name: paddle, comment: paddle number, id: 1, type: Di}
`

type cliEnv struct {
	dir        string
	configPath string
}

func setupCLITestEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[detector]
output_dir = %q

[store]
path = %q

[logging]
level = "error"
`, filepath.Join(dir, "out"), filepath.Join(dir, "geometry.db"))
	path := filepath.Join(dir, "detgeo.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{dir: dir, configPath: path}
}

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Fatalf("output does not contain %q:\n%s", want, got)
	}
}

func writeScript(t *testing.T, env cliEnv) string {
	t.Helper()
	path := filepath.Join(env.dir, "ctof.zy")
	if err := os.WriteFile(path, []byte(ctofScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestEvalWritesTextFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, []string{"eval", writeScript(t, env)}, env.configPath)
	if err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	requireContains(t, out, "Detector ctof variation rga id 1")

	for _, name := range []string{"ctof__geometry_rga.txt", "ctof__hit_rga.txt", "ctof__bank.txt"} {
		if _, err := os.Stat(filepath.Join(env.dir, "out", name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestEvalReportsScriptErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.dir, "bad.zy")
	if err := os.WriteFile(path, []byte(`(volume "a" :type "Box" :dims "1*cm 1*cm 1*cm")`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, []string{"eval", path}, env.configPath)
	if err == nil {
		t.Fatal("expected error for volumes without a detector form")
	}
	requireContains(t, err.Error(), "detector")
}

func TestConvertAndPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	if out, err := runCLI(t, []string{"eval", writeScript(t, env)}, env.configPath); err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	geometry := filepath.Join(env.dir, "out", "ctof__geometry_rga.txt")

	out, err := runCLI(t, []string{"convert", geometry, "--format", "rows"}, env.configPath)
	if err != nil {
		t.Fatalf("convert rows: %v", err)
	}
	requireContains(t, out, "paddle_1")
	requireContains(t, out, "ctof_mother")

	out, err = runCLI(t, []string{"convert", geometry, "--format", "script"}, env.configPath)
	if err != nil {
		t.Fatalf("convert script: %v", err)
	}
	requireContains(t, out, `(detector "ctof" :variation "rga" :id 1)`)

	if _, err := runCLI(t, []string{"convert", geometry, "--format", "gdml"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown format")
	}

	out, err = runCLI(t, []string{"place", geometry}, env.configPath)
	if err != nil {
		t.Fatalf("place: %v\n%s", err, out)
	}
	requireContains(t, out, "paddle_1")
	requireContains(t, out, "27.5000")
}

func TestStoreWriteAndRead(t *testing.T) {
	env := setupCLITestEnv(t)
	if out, err := runCLI(t, []string{"eval", writeScript(t, env), "--store"}, env.configPath); err != nil {
		t.Fatalf("eval --store: %v\n%s", err, out)
	}
	geometry := filepath.Join(env.dir, "out", "ctof__geometry_rga.txt")

	yamlPath := filepath.Join(env.dir, "ctof.yaml")
	if err := os.WriteFile(yamlPath, []byte(ctofSensitive), 0o644); err != nil {
		t.Fatal(err)
	}

	// The text file alone has no descriptor for the ctof sensitivity.
	if _, err := runCLI(t, []string{"store", "write", geometry, "--next-id"}, env.configPath); err == nil {
		t.Fatal("expected error without sensitive descriptors")
	}

	out, err := runCLI(t, []string{"store", "write", geometry, "--next-id", "--sensitive", yamlPath}, env.configPath)
	if err != nil {
		t.Fatalf("store write: %v", err)
	}
	requireContains(t, out, "Stored ctof variation rga id 2")

	out, err = runCLI(t, []string{"store", "latest", "ctof", "--variation", "rga"}, env.configPath)
	if err != nil {
		t.Fatalf("store latest: %v", err)
	}
	requireContains(t, out, "2")

	out, err = runCLI(t, []string{"store", "read", "ctof", "--variation", "rga", "--id", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("store read: %v", err)
	}
	requireContains(t, out, "sensitive ctof")
	requireContains(t, out, "paddle_1")

	if _, err := runCLI(t, []string{"store", "read", "ghost", "--variation", "rga"}, env.configPath); err == nil {
		t.Fatal("expected error for missing detector")
	}
}

func TestRotationCommand(t *testing.T) {
	out, err := runCLI(t, []string{"rotation", "0", "0", "90"}, "")
	if err != nil {
		t.Fatalf("rotation: %v", err)
	}
	requireContains(t, out, "90.0000 deg")
	requireContains(t, out, "passive:")

	if _, err := runCLI(t, []string{"rotation", "0", "0", "90", "--unit", "grad"}, ""); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Vacuum")
}
