package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := New(&stderr, LogInfo)
	root := c.RootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestValidateEmbedded(t *testing.T) {
	out, _, err := execute(t, "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{
		"embedded dataset is valid",
		"major links",
		"detailed: 26 nodes",
		"collapsed: 14 nodes (6 games, 0 minor, 8 major), 31 edges",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	bad := "[[major]]\nname = \"closer\"\nchildren = [\"nope\"]\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "validate", path)
	if !errors.Is(err, errors.ErrCodeInvalidDataset) {
		t.Fatalf("validate error = %v, want INVALID_DATASET", err)
	}
	if !strings.Contains(out, "is invalid") || !strings.Contains(out, "nope") {
		t.Errorf("output does not list the problem:\n%s", out)
	}
}

func TestGraphCommand(t *testing.T) {
	tests := []struct {
		mode      string
		wantNodes int
		wantEdges int
	}{
		{"detailed", 26, 46},
		{"collapsed", 14, 31},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			out, _, err := execute(t, "graph", "--mode", tt.mode)
			if err != nil {
				t.Fatal(err)
			}
			g, err := graph.UnmarshalGraph([]byte(out))
			if err != nil {
				t.Fatalf("UnmarshalGraph: %v", err)
			}
			if len(g.Nodes) != tt.wantNodes || len(g.Edges) != tt.wantEdges {
				t.Errorf("graph = %d nodes, %d edges; want %d, %d", len(g.Nodes), len(g.Edges), tt.wantNodes, tt.wantEdges)
			}
		})
	}
}

func TestGraphCommandInvalidMode(t *testing.T) {
	_, _, err := execute(t, "graph", "--mode", "sideways")
	if !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("error = %v, want INVALID_MODE", err)
	}
}

func TestLayoutCommandPins(t *testing.T) {
	out, _, err := execute(t, "layout", "--mode", "collapsed", "--no-cache", "--pin", "artifact:Sky=10,20")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := graph.UnmarshalLayout([]byte(out))
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if l.Engine != "force" || len(l.Positions) != 14 {
		t.Errorf("layout = %s with %d positions", l.Engine, len(l.Positions))
	}
	if p := l.Positions["artifact:Sky"]; p.X != 10 || p.Y != 20 || !p.Fixed {
		t.Errorf("Sky = %+v, want pinned at (10, 20)", p)
	}
}

func TestLayoutCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	_, stderr, err := execute(t, "layout", "--no-cache", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	l, err := graph.ReadLayoutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Nodes) != 26 {
		t.Errorf("nodes = %d, want 26", len(l.Nodes))
	}
	if !strings.Contains(stderr, path) {
		t.Errorf("status does not name the file:\n%s", stderr)
	}
}

func TestParsePins(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]graph.Position
		wantErr bool
	}{
		{name: "none", in: nil, want: nil},
		{
			name: "two",
			in:   []string{"link:0=1,2", " artifact:Sky = 3.5, -4 "},
			want: map[string]graph.Position{
				"link:0":       {X: 1, Y: 2, Fixed: true},
				"artifact:Sky": {X: 3.5, Y: -4, Fixed: true},
			},
		},
		{name: "no equals", in: []string{"link:0"}, wantErr: true},
		{name: "no comma", in: []string{"link:0=1"}, wantErr: true},
		{name: "bad number", in: []string{"link:0=a,2"}, wantErr: true},
		{name: "empty key", in: []string{"=1,2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePins(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("parsePins(%q) error = %v, want INVALID_INPUT", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parsePins(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, p := range tt.want {
				if got[k] != p {
					t.Errorf("%s = %+v, want %+v", k, got[k], p)
				}
			}
		})
	}
}

func TestInspectCommand(t *testing.T) {
	out, _, err := execute(t, "inspect", "--json", "gifting")
	if err != nil {
		t.Fatal(err)
	}
	var info view.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if info.Group != "minor" || len(info.Parents) != 3 {
		t.Errorf("info = %+v", info)
	}

	out, _, err = execute(t, "inspect", "artifact:Kind Words")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Popcannibal - a game about writing letters to others") {
		t.Errorf("output missing description:\n%s", out)
	}

	if _, _, err := execute(t, "inspect", "Journey"); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("inspect Journey = %v, want UNKNOWN_NODE", err)
	}
}

func TestDatasetExport(t *testing.T) {
	for _, format := range []string{dataset.FormatTOML, dataset.FormatJSON} {
		t.Run(format, func(t *testing.T) {
			out, _, err := execute(t, "dataset", "export", "--format", format)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := dataset.Parse([]byte(out), format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			a, err := dataset.Build(doc)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got, want := a.Stats(), dataset.Default().Stats(); got != want {
				t.Errorf("stats = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDatasetExportReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.json")
	if _, _, err := execute(t, "dataset", "export", "-o", path); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "--dataset", path, "graph", "--mode", "collapsed")
	if err != nil {
		t.Fatalf("graph from exported dataset: %v", err)
	}
	g, err := graph.UnmarshalGraph([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 14 {
		t.Errorf("nodes = %d, want 14", len(g.Nodes))
	}
}

func TestRenderCommand(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "atlas")
	_, stderr, err := execute(t, "render", "--no-cache", "--format", "json,dot", "--output", base)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, ext := range []string{".json", ".dot"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			t.Fatalf("missing %s: %v", ext, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", ext)
		}
		if !strings.Contains(stderr, base+ext) {
			t.Errorf("status does not list %s", base+ext)
		}
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "render", "--no-cache", "--format", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default", "", []string{"svg"}, map[string]string{"svg": "linkatlas.svg"}},
		{"single file", "graph.svg", []string{"svg"}, map[string]string{"svg": "graph.svg"}},
		{"single odd extension", "graph.out", []string{"dot"}, map[string]string{"dot": "graph.out"}},
		{"multiple base", "out/atlas", []string{"svg", "html"}, map[string]string{"svg": "out/atlas.svg", "html": "out/atlas.html"}},
		{"multiple strip ext", "atlas.svg", []string{"svg", "json"}, map[string]string{"svg": "atlas.svg", "json": "atlas.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, tt.formats)
			for f, want := range tt.want {
				if got[f] != want {
					t.Errorf("outputPaths(%q)[%s] = %q, want %q", tt.output, f, got[f], want)
				}
			}
		})
	}
}

func TestCacheCommands(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, err := cache.DefaultDir()
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	out, _, err = execute(t, "cache", "clear")
	if err != nil || !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on empty cache = %q, %v", out, err)
	}

	if _, _, err := execute(t, "layout", "-o", filepath.Join(t.TempDir(), "l.json")); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Fatal("layout did not populate the cache")
	}

	out, _, err = execute(t, "cache", "clear")
	if err != nil || !strings.Contains(out, "Cleared") {
		t.Errorf("clear = %q, %v", out, err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("cache still holds %d entries", len(entries))
	}
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "linkatlas") {
		t.Error("bash completion does not mention linkatlas")
	}
	if _, _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh should fail")
	}
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name string
		args []string
	}{
		{"bad addr", []string{"serve", "--addr", "nope"}},
		{"bad cache backend", []string{"serve", "--cache-backend", "memcached"}},
		{"bad mode", []string{"serve", "--mode", "sideways"}},
		{"missing config", []string{"serve", "--config", "missing.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Error("serve should fail before listening")
			}
		})
	}
}
