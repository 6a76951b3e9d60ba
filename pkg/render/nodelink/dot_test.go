package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dtsm/pkg/manifest"
)

func sample() *manifest.Manifest {
	m := manifest.New()
	m.Set("atom/atom.d.ts", manifest.Entry{Ref: "0123456789abcdef", Dependencies: []string{"q/Q.d.ts", "missing/missing.d.ts"}})
	m.Set("q/Q.d.ts", manifest.Entry{Ref: "aaa"})
	return m
}

func TestToDOT(t *testing.T) {
	got := ToDOT(sample(), Options{Detailed: true})

	for _, want := range []string{
		`"atom/atom.d.ts" [label="atom/atom.d.ts\n01234567"];`,
		`"q/Q.d.ts" [label="q/Q.d.ts\naaa"];`,
		`"missing/missing.d.ts" [label="missing/missing.d.ts", style="rounded,filled,dashed", fillcolor=lightgrey];`,
		`"atom/atom.d.ts" -> "missing/missing.d.ts";`,
		`"atom/atom.d.ts" -> "q/Q.d.ts";`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DOT missing %s\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, "digraph G {\n") || !strings.HasSuffix(got, "}\n") {
		t.Errorf("malformed DOT:\n%s", got)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	a := ToDOT(sample(), Options{})
	for range 10 {
		if diff := cmp.Diff(a, ToDOT(sample(), Options{})); diff != "" {
			t.Fatalf("ToDOT() not deterministic:\n%s", diff)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	got := ToDOT(manifest.New(), Options{})
	if strings.Contains(got, "->") {
		t.Errorf("empty manifest produced edges:\n%s", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"dot", FormatDOT, false},
		{"SVG", FormatSVG, false},
		{"png", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := Render(context.Background(), sample(), FormatSVG, Options{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("unexpected SVG header:\n%.200s", svg)
	}
	if !bytes.Contains(svg, []byte("atom/atom.d.ts")) {
		t.Error("SVG missing node label")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if diff := cmp.Diff(want, string(normalizeViewBox(in))); diff != "" {
		t.Errorf("normalizeViewBox() mismatch (-want +got):\n%s", diff)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(noBox); !bytes.Equal(got, noBox) {
		t.Errorf("normalizeViewBox() changed input without viewBox: %s", got)
	}
}
