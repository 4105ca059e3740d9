package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/geodealer/pkg/config"
)

// captureOutput redirects the command output streams for one test.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr, oldConfig := stdout, stderr, configPath
	stdout, stderr = out, errOut
	t.Cleanup(func() {
		stdout, stderr, configPath = oldOut, oldErr, oldConfig
	})
	return out, errOut
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPermitCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "defaults", args: nil, want: "not determined"},
		{name: "denied", args: []string{"--service=true", "--status=denied"}, want: "denied for the app"},
		{name: "services off", args: []string{"--service", "false", "--status", "denied"}, want: "denied for all apps"},
		{name: "restricted and off", args: []string{"--service=false", "--status=restricted"}, want: "denied for all and restricted"},
		{name: "allowed", args: []string{"--status=authorized_when_in_use"}, want: "allowed"},
		{name: "bad bool", args: []string{"--service=maybe"}, wantErr: true},
		{name: "bad status", args: []string{"--status=sometimes"}, wantErr: true},
		{name: "stray argument", args: []string{"extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := captureOutput(t)
			err := runPermit(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runPermit(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootDispatch(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		out, _ := captureOutput(t)
		if err := run([]string{"--version"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "geodealer version "+Version) {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, errOut := captureOutput(t)
		if err := run([]string{"teleport"}); err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(errOut.String(), `unknown command "teleport"`) {
			t.Errorf("stderr = %q", errOut.String())
		}
	})

	t.Run("command help", func(t *testing.T) {
		out, _ := captureOutput(t)
		if err := run([]string{"permit", "--help"}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "geodealer permit [--service BOOL]") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("config flag", func(t *testing.T) {
		out, _ := captureOutput(t)
		if err := run([]string{"--config=custom.yaml", "permit", "--status=denied"}); err != nil {
			t.Fatal(err)
		}
		if configPath != "custom.yaml" {
			t.Errorf("configPath = %q", configPath)
		}
		if strings.TrimSpace(out.String()) != "denied for the app" {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("config flag without value", func(t *testing.T) {
		captureOutput(t)
		if err := run([]string{"--config"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

const consentScenario = `name: consent then fix
service: true
status: notDetermined
steps:
  - action: requestCurrentLocation
  - action: requestPermission
    level: whenInUse
  - action: error
    message: consent pending
  - action: setStatus
    status: authorizedWhenInUse
  - action: authorization
    status: authorizedWhenInUse
  - action: requestCurrentLocation
    accuracy: hundredMeters
  - action: locations
    fixes:
      - {latitude: 55.7522, longitude: 37.6155}
  - action: startUpdates
  - action: locations
`

func TestSimulateCommand(t *testing.T) {
	out, errOut := captureOutput(t)
	configPath = filepath.Join(t.TempDir(), config.FileName)
	scenario := writeFile(t, "scenario.yaml", consentScenario)

	if err := runSimulate([]string{"--log-level", "warn", scenario}); err != nil {
		t.Fatalf("runSimulate() error = %v\nstderr: %s", err, errOut.String())
	}

	want := []string{
		"scenario consent then fix",
		"provider: oneShotFix=false explicitPrompt=false permit=not determined",
		"step 1: requestCurrentLocation -> order=None",
		"  refused: location: needs permission (not determined)",
		"step 2: requestPermission -> order=Permission",
		"step 3: error -> order=Permission",
		"step 4: setStatus -> order=Permission",
		"  status changed: authorizedWhenInUse",
		"step 5: authorization -> order=Permission",
		"step 6: requestCurrentLocation -> order=Current Location",
		"  current location: [55.75, 37.61]",
		"step 7: locations -> order=None",
		"step 8: startUpdates -> order=Location Updates",
		"  location updates: location: received empty location data",
		"step 9: locations -> order=None",
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out.String())
	}
	for i := range want {
		if !strings.HasPrefix(lines[i], want[i]) {
			t.Errorf("line %d = %q, want prefix %q", i+1, lines[i], want[i])
		}
	}
}

func TestSimulateConfigVariant(t *testing.T) {
	out, _ := captureOutput(t)
	configPath = writeFile(t, config.FileName, "platform:\n  oneShotFix: true\n  explicitPrompt: true\nlog:\n  level: error\n")
	scenario := writeFile(t, "scenario.yaml", "status: notDetermined\nsteps:\n  - action: requestPermission\n")

	if err := runSimulate([]string{scenario}); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "provider: oneShotFix=true explicitPrompt=true") {
		t.Errorf("config variant not applied:\n%s", got)
	}
	if !strings.Contains(got, "step 1: requestPermission -> order=None") {
		t.Errorf("explicit prompt should leave no order:\n%s", got)
	}
}

func TestSimulateErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"no scenario", func(*testing.T) []string { return nil }},
		{"two scenarios", func(*testing.T) []string { return []string{"a.yaml", "b.yaml"} }},
		{"unknown flag", func(*testing.T) []string { return []string{"--fast", "a.yaml"} }},
		{"missing file", func(t *testing.T) []string { return []string{filepath.Join(t.TempDir(), "none.yaml")} }},
		{"invalid scenario", func(t *testing.T) []string {
			return []string{writeFile(t, "bad.yaml", "steps:\n  - action: fly\n")}
		}},
		{"bad log level", func(t *testing.T) []string {
			return []string{"--log-level=loud", writeFile(t, "ok.yaml", "steps: []\n")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureOutput(t)
			configPath = filepath.Join(t.TempDir(), config.FileName)
			if err := runSimulate(tt.args(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
