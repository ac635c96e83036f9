package main

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DMarby/instafilter/internal/filter"
)

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeImage(t *testing.T, path string) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 12), uint8(y * 25), 100, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestFilters(t *testing.T) {
	out, err := execute(t, "filters")
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	entries := filter.Default().Entries()
	if len(lines) != len(entries) {
		t.Fatalf("wrong amount of filters listed: %d", len(lines))
	}

	for i, entry := range entries {
		if !strings.HasPrefix(lines[i], entry.Name) {
			t.Errorf("wrong filter on line %d: %s", i, lines[i])
		}
	}

	if !strings.Contains(out, filter.DefaultName+" (default)") {
		t.Error("default filter isn't marked")
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.png")
	writeImage(t, input)

	tests := []struct {
		Name           string
		Args           []string
		ExpectedOutput string
		ExpectedError  bool
	}{
		{"default filter", []string{"apply", input, filepath.Join(dir, "sepia.png")}, "sepia.png", false},
		{"blur to jpeg", []string{"apply", "-f", "gaussian blur", "--radius", "4", input, filepath.Join(dir, "blur.jpg")}, "blur.jpg", false},
		{"explicit format", []string{"apply", "-f", "Chrome", "--format", "png", input, filepath.Join(dir, "chrome.out")}, "chrome.out", false},
		{"unknown filter", []string{"apply", "-f", "Lomo", input, filepath.Join(dir, "lomo.png")}, "", true},
		{"unknown format", []string{"apply", input, filepath.Join(dir, "output.gif")}, "", true},
		{"missing input", []string{"apply", filepath.Join(dir, "nonexistant.png"), filepath.Join(dir, "out.png")}, "", true},
		{"missing arguments", []string{"apply", input}, "", true},
	}

	for _, test := range tests {
		_, err := execute(t, test.Args...)
		if test.ExpectedError {
			if err == nil {
				t.Errorf("%s: expected error", test.Name)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, test.ExpectedOutput))
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			t.Errorf("%s: invalid output: %s", test.Name, err)
			continue
		}

		if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
			t.Errorf("%s: wrong output size %v", test.Name, img.Bounds())
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out, "instafilter-tool") {
		t.Errorf("wrong version output %s", out)
	}
}
