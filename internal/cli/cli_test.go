package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	dtsmerrors "github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/manager"
	"github.com/matzehuels/dtsm/pkg/manifest"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	want := []string{"cache", "completion", "fetch", "graph", "init", "install", "outdated", "search", "uninstall"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
}

func TestRootCommandFlags(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"config", "manifest", "verbose"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	if got := root.PersistentFlags().Lookup("manifest").DefValue; got != manifest.DefaultFile {
		t.Errorf("--manifest default = %q, want %q", got, manifest.DefaultFile)
	}
}

func TestInitCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	mfPath := filepath.Join(t.TempDir(), "dtsm.json")

	if err := runCLI(t, "--config", cfgPath, "--manifest", mfPath, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	mf, err := manifest.Load(mfPath)
	if err != nil {
		t.Fatalf("manifest not created: %v", err)
	}
	if mf.Len() != 0 {
		t.Errorf("new manifest has %d entries", mf.Len())
	}

	err = runCLI(t, "--config", cfgPath, "--manifest", mfPath, "init")
	if !dtsmerrors.Is(err, dtsmerrors.ErrCodeAlreadyExists) {
		t.Errorf("second init error = %v, want ALREADY_EXISTS", err)
	}
	if err := runCLI(t, "--config", cfgPath, "--manifest", mfPath, "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestSearchBeforeFetch(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	mfPath := filepath.Join(t.TempDir(), "dtsm.json")

	err := runCLI(t, "--config", cfgPath, "--manifest", mfPath, "search", "jquery")
	if !dtsmerrors.Is(err, dtsmerrors.ErrCodeIndexUnavailable) {
		t.Errorf("search error = %v, want INDEX_UNAVAILABLE", err)
	}
}

func TestGraphCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	dir := t.TempDir()
	mfPath := filepath.Join(dir, "dtsm.json")
	out := filepath.Join(dir, "deps.dot")

	mf := manifest.New()
	mf.Set("atom/atom.d.ts", manifest.Entry{Ref: "a", Dependencies: []string{"q/Q.d.ts"}})
	mf.Set("q/Q.d.ts", manifest.Entry{Ref: "b"})
	if err := manifest.Save(t.Context(), mfPath, mf); err != nil {
		t.Fatal(err)
	}

	if err := runCLI(t, "--config", cfgPath, "--manifest", mfPath, "graph", "-o", out); err != nil {
		t.Fatalf("graph: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := `"atom/atom.d.ts" -> "q/Q.d.ts";`; !strings.Contains(string(data), want) {
		t.Errorf("graph output missing edge %s:\n%s", want, data)
	}

	if err := runCLI(t, "--config", cfgPath, "--manifest", mfPath, "graph", "--format", "png"); err == nil {
		t.Error("graph --format png should fail")
	}
}

func TestResultError(t *testing.T) {
	ok := &manager.Result{
		Terms:        map[string]manager.TermOutcome{"jquery": {Identifier: "jquery/jquery.d.ts"}},
		Dependencies: map[string]manager.DepOutcome{"jquery/jquery.d.ts": {Ref: "r"}},
	}
	if err := resultError(ok); err != nil {
		t.Errorf("resultError(ok) = %v", err)
	}

	failed := &manager.Result{
		Terms: map[string]manager.TermOutcome{
			"jquery": {Identifier: "jquery/jquery.d.ts"},
			"angul":  {Err: &dtsmerrors.AmbiguousError{Term: "angul", Candidates: []string{"a", "b"}}},
		},
		Dependencies: map[string]manager.DepOutcome{
			"jquery/jquery.d.ts": {Ref: "r"},
		},
	}
	err := resultError(failed)
	var ef *errFailed
	if !errors.As(err, &ef) {
		t.Fatalf("resultError(failed) = %v, want *errFailed", err)
	}
	if ef.failed != 1 || ef.total != 3 {
		t.Errorf("errFailed = %+v, want 1 of 3", ef)
	}
}

func TestShortRef(t *testing.T) {
	tests := map[string]string{
		"":                 "-",
		"abc":              "abc",
		"0123456789abcdef": "0123456789ab",
	}
	for in, want := range tests {
		if got := shortRef(in); got != want {
			t.Errorf("shortRef(%q) = %q, want %q", in, got, want)
		}
	}
}
