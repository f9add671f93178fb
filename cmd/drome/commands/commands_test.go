package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benvon/lingua-drome/internal/catalog"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/prompt"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type cli struct {
	dir   string
	store string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{dir: dir, store: "sqlite://" + filepath.Join(dir, "drome.db")}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--store", c.store}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	if err != nil {
		t.Fatalf("drome %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func (c *cli) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func (c *cli) snapshot(t *testing.T) models.Snapshot {
	t.Helper()
	var s models.Snapshot
	if err := json.Unmarshal([]byte(c.mustRun(t, "export", "project", "-o", "-")), &s); err != nil {
		t.Fatalf("Failed to decode exported project: %v", err)
	}
	return s
}

func TestCLI_AssetWorkflow(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	seed := c.writeFile(t, "seed.png", pngHeader)
	notes := c.writeFile(t, "notes.txt", []byte("plain text"))

	out := c.mustRun(t, "import", seed, notes)
	if !strings.HasPrefix(out, "Imported 1 of 2 files") {
		t.Errorf("Unexpected import output %q", out)
	}

	out = c.mustRun(t, "list")
	if !strings.Contains(out, "seed.png") || !strings.Contains(out, "image") || !strings.Contains(out, "ellipse") {
		t.Errorf("Unexpected list output:\n%s", out)
	}

	snap := c.snapshot(t)
	if len(snap.Assets) != 1 {
		t.Fatalf("Expected 1 asset, got %d", len(snap.Assets))
	}
	id := snap.Assets[0].ID

	c.mustRun(t, "tag", id, "colors", "red, blue ,  ")
	c.mustRun(t, "update", id, "--phase", "fold", "--timecode", "12.5", "--notes", "first cut")

	out = c.mustRun(t, "show", id)
	for _, want := range []string{"phase: fold", "timecode: 12.5s", "notes: first cut", "- red", "- blue"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected show output to contain %q:\n%s", want, out)
		}
	}

	out = c.mustRun(t, "export", "catalog", "-o", "-")
	want := "## 1. seed.png\n- Type: image\n- Phase: fold\n- Colors: red, blue\n- Timecode: 12.5s\n- Notes: first cut\n"
	if !strings.Contains(out, want) {
		t.Errorf("Expected catalog to contain %q:\n%s", want, out)
	}
	if !strings.HasSuffix(out, catalog.CreditPT+"\n") {
		t.Error("Expected catalog to end with the credits")
	}

	c.mustRun(t, "update", id, "--notes", "  second pass\x07 ")
	if got := c.snapshot(t).Assets[0].Notes; got != "  second pass " {
		t.Errorf("Expected notes kept as typed without control characters, got %q", got)
	}

	if _, err := c.run(t, "update", id, "--phase", "spiral"); err == nil {
		t.Error("Expected error for invalid phase")
	}
	if _, err := c.run(t, "tag", id, "mood", "x"); err == nil {
		t.Error("Expected error for unknown category")
	}
	if _, err := c.run(t, "show", "missing"); err == nil {
		t.Error("Expected error for unknown asset")
	}

	c.mustRun(t, "remove", id)
	if _, err := c.run(t, "remove", id); err == nil {
		t.Error("Expected error removing twice")
	}
	if out := c.mustRun(t, "list"); !strings.Contains(out, "No assets") {
		t.Errorf("Expected empty project, got %q", out)
	}
}

func TestCLI_ExportFiles(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.mustRun(t, "import", c.writeFile(t, "orb.png", pngHeader))

	catalogPath := filepath.Join(c.dir, "catalog.md")
	projectPath := filepath.Join(c.dir, "project.json")
	c.mustRun(t, "export", "catalog", "-o", catalogPath)
	c.mustRun(t, "export", "project", "--out", projectPath)

	md, err := os.ReadFile(catalogPath)
	if err != nil || !strings.Contains(string(md), "## 1. orb.png") {
		t.Errorf("Unexpected catalog file (%v):\n%s", err, md)
	}
	data, err := os.ReadFile(projectPath)
	if err != nil || !strings.Contains(string(data), "\n  \"assets\": [") {
		t.Errorf("Unexpected project file (%v):\n%s", err, data)
	}

	out := c.mustRun(t, "export", "catalog", "--render", "--width", "60")
	if !strings.Contains(out, "orb.png") {
		t.Errorf("Expected rendered catalog to mention the asset:\n%s", out)
	}
}

func TestCLI_Load(t *testing.T) {
	t.Parallel()
	source := newCLI(t)
	source.mustRun(t, "import", source.writeFile(t, "a.png", pngHeader), source.writeFile(t, "b.png", pngHeader))
	exported := filepath.Join(source.dir, "project.json")
	source.mustRun(t, "export", "project", "-o", exported)

	target := newCLI(t)
	if out := target.mustRun(t, "load", exported); !strings.Contains(out, "Loaded 2 assets") {
		t.Errorf("Unexpected load output %q", out)
	}
	if got := target.snapshot(t); len(got.Assets) != 2 || got.Assets[0].Name != "a.png" {
		t.Errorf("Unexpected loaded assets %+v", got.Assets)
	}

	bad := target.writeFile(t, "bad.json", []byte("{not json"))
	if _, err := target.run(t, "load", bad); err == nil {
		t.Error("Expected error for malformed project file")
	}
	if got := target.snapshot(t); len(got.Assets) != 2 {
		t.Errorf("Expected project unchanged after rejected load, got %d assets", len(got.Assets))
	}
	if _, err := target.run(t, "load", filepath.Join(target.dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCLI_Tokens(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out := c.mustRun(t, "tokens", "show")
	if !strings.HasPrefix(out, "material:\n  - mineral pigments\n") {
		t.Errorf("Expected default vocabulary in category order:\n%s", out)
	}

	c.mustRun(t, "tokens", "load", c.writeFile(t, "tokens.yaml", []byte("psychic:\n  - trance\ncolors: [gold]\n")))
	out = c.mustRun(t, "tokens", "show")
	if out != "colors:\n  - gold\npsychic:\n  - trance\n" {
		t.Errorf("Unexpected vocabulary:\n%s", out)
	}

	if _, err := c.run(t, "tokens", "load", c.writeFile(t, "bad.yaml", []byte("mood: [x]\n"))); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestCLI_PromptCompose(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.mustRun(t, "import", c.writeFile(t, "seed.png", pngHeader))
	id := c.snapshot(t).Assets[0].ID

	out := c.mustRun(t, "prompt", "compose",
		"--pick", "material=wooden panel",
		"--pick", "psychic=trance",
		"--custom", "",
		"--phase", "rhizome",
		"--apply", id,
	)
	want := prompt.SceneSentence(models.PhaseRhizome) + " Textures: wooden panel. Psychic field: trance."
	if strings.TrimSuffix(out, "\n") != want {
		t.Errorf("Composed %q, expected %q", out, want)
	}
	if got := c.snapshot(t).Assets[0].Prompt; got != want {
		t.Errorf("Expected prompt applied, got %q", got)
	}

	out = c.mustRun(t, "prompt", "compose", "--credits")
	if !strings.Contains(out, prompt.DefaultCustomLine) || !strings.Contains(out, catalog.CreditEN) {
		t.Errorf("Expected default custom line and credits, got %q", out)
	}

	if _, err := c.run(t, "prompt", "compose", "--apply", "missing"); err == nil {
		t.Error("Expected error applying to an unknown asset")
	}
	if _, err := c.run(t, "prompt", "compose", "--phase", "spiral"); err == nil {
		t.Error("Expected error for invalid phase")
	}
}

func TestCLI_ClearRequiresConfirmation(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.mustRun(t, "import", c.writeFile(t, "seed.png", pngHeader))

	if _, err := c.run(t, "clear"); err == nil {
		t.Error("Expected clear without --yes to fail")
	}
	if out := c.mustRun(t, "clear", "--yes"); out != "Removed 1 assets\n" {
		t.Errorf("Unexpected clear output %q", out)
	}
}

func TestParsePick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		category models.Category
		value    string
		wantErr  bool
	}{
		{"material=soil", models.CategoryMaterial, "soil", false},
		{" colors = gold, violet ", models.CategoryColors, "gold, violet", false},
		{"gesture=a=b", models.CategoryGesture, "a=b", false},
		{"material", "", "", true},
		{"material=", "", "", true},
		{"mood=x", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			c, v, err := parsePick(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePick(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if c != tt.category || v != tt.value {
				t.Errorf("parsePick(%q) = %q, %q; expected %q, %q", tt.raw, c, v, tt.category, tt.value)
			}
		})
	}
}
