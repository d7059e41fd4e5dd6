package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
)

const omeAttrs = `{
  "multiscales": [{
    "version": "0.4",
    "axes": [
      {"name": "c", "type": "channel"},
      {"name": "y", "type": "space", "unit": "micrometer"},
      {"name": "x", "type": "space", "unit": "micrometer"}
    ],
    "datasets": [
      {"path": "0", "coordinateTransformations": [{"type": "scale", "scale": [1, 0.5, 0.5]}]}
    ]
  }],
  "omero": {
    "channels": [
      {"label": "DAPI", "color": "0000FF", "window": {"min": 0, "max": 255, "start": 0, "end": 200}},
      {"label": "GFP", "color": "00FF00", "window": {"min": 0, "max": 255, "start": 10, "end": 100}}
    ]
  }
}`

const array3D = `{"zarr_format": 2, "shape": [2, 8, 8], "chunks": [1, 4, 4], "dtype": "|u1",
  "compressor": null, "fill_value": 0, "order": "C", "filters": null}`

const array2D = `{"zarr_format": 2, "shape": [8, 8], "chunks": [4, 4], "dtype": "<u2",
  "compressor": null, "fill_value": 0, "order": "C", "filters": null}`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// testEnv lays out a folder with an OME-Zarr image, a raw array and an empty
// folder, and isolates config and cache directories.
func testEnv(t *testing.T) (root, configPath string) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root = t.TempDir()
	writeFiles(t, root, map[string]string{
		"image.zarr/.zattrs":   omeAttrs,
		"image.zarr/.zgroup":   `{"zarr_format": 2}`,
		"image.zarr/0/.zarray": array3D,
		"raw.zarr/.zarray":     array2D,
		"empty/readme.txt":     "nothing here",
	})

	configPath = filepath.Join(t.TempDir(), "config.toml")
	writeFiles(t, filepath.Dir(configPath), map[string]string{
		"config.toml": "[thumbnail]\ndisabled = true\n",
	})
	return root, configPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspect(t *testing.T) {
	root, cfg := testEnv(t)

	out, err := runCLI(t, "--config", cfg, "inspect", filepath.Join(root, "image.zarr"))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"ome_zarr", "[2, 8, 8]", "DAPI", "GFP", "Neuroglancer", "micrometer"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectJSON(t *testing.T) {
	root, cfg := testEnv(t)

	tests := []struct {
		dataset   string
		wantState string
		wantNG    bool
	}{
		{"image.zarr", "ome_zarr", true},
		{"raw.zarr", "raw_array", true},
		{"empty", "no_metadata", false},
	}
	for _, tt := range tests {
		t.Run(tt.dataset, func(t *testing.T) {
			out, err := runCLI(t, "--config", cfg, "inspect", "--json",
				"--data-url", "https://example.org/"+tt.dataset,
				filepath.Join(root, tt.dataset))
			if err != nil {
				t.Fatalf("inspect --json: %v", err)
			}
			var body struct {
				State string                `json:"state"`
				Tools neuroglancer.ToolURLs `json:"tools"`
			}
			if err := json.Unmarshal([]byte(out), &body); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if body.State != tt.wantState {
				t.Errorf("state = %q, want %q", body.State, tt.wantState)
			}
			if body.Tools.Copy != "https://example.org/"+tt.dataset {
				t.Errorf("copy = %q", body.Tools.Copy)
			}
			if got := body.Tools.Neuroglancer != nil; got != tt.wantNG {
				t.Errorf("neuroglancer link present = %v, want %v", got, tt.wantNG)
			}
		})
	}
}

func TestState(t *testing.T) {
	root, cfg := testEnv(t)
	image := filepath.Join(root, "image.zarr")

	out, err := runCLI(t, "--config", cfg, "state", image)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	var state neuroglancer.State
	if err := json.Unmarshal([]byte(out), &state); err != nil {
		t.Fatalf("decode state: %v\n%s", err, out)
	}
	if len(state.Layers) != 2 {
		t.Errorf("layers = %d, want 2", len(state.Layers))
	}

	out, err = runCLI(t, "--config", cfg, "state", "--url", image)
	if err != nil {
		t.Fatalf("state --url: %v", err)
	}
	if !strings.HasPrefix(out, neuroglancer.DefaultNeuroglancerBase) {
		t.Errorf("link = %q", out)
	}

	_, err = runCLI(t, "--config", cfg, "state", filepath.Join(root, "empty"))
	if !zerrors.Is(err, zerrors.ErrCodeMetadataMissing) {
		t.Errorf("state on empty folder: err = %v, want METADATA_MISSING", err)
	}
}

func TestClassify(t *testing.T) {
	root, cfg := testEnv(t)

	out, err := runCLI(t, "--config", cfg, "classify", "--json", filepath.Join(root, "raw.zarr"))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var result struct {
		Type   string `json:"type"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Type != "image" || result.Method != "default" {
		t.Errorf("classification = %+v, want image by default", result)
	}

	_, err = runCLI(t, "--config", cfg, "classify", "--method", "coinflip", filepath.Join(root, "raw.zarr"))
	if !zerrors.Is(err, zerrors.ErrCodeInvalidInput) {
		t.Errorf("unknown method: err = %v, want INVALID_INPUT", err)
	}
}

func TestConfigErrors(t *testing.T) {
	root, _ := testEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.toml")
	writeFiles(t, filepath.Dir(bad), map[string]string{"bad.toml": "[cache]\nbackend = \"tape\"\n"})

	_, err := runCLI(t, "--config", bad, "inspect", filepath.Join(root, "raw.zarr"))
	if !zerrors.Is(err, zerrors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestCacheCommands(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := runCLI(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	out, err = runCLI(t, "--config", cfg, "cache", "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("stats before first use = %q", out)
	}

	if err := os.MkdirAll(filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName), 0o755); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "--config", cfg, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 0 cached entries") {
		t.Errorf("clear output = %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
