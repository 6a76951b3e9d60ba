package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	dtsmerrors "github.com/matzehuels/dtsm/pkg/errors"
)

func sample() *Manifest {
	m := New()
	m.AddRepo(Repo{URL: "https://github.com/borisyankov/DefinitelyTyped.git", Ref: "master"})
	m.Set("jquery/jquery.d.ts", Entry{Ref: "aaa"})
	m.Set("atom/atom.d.ts", Entry{Ref: "bbb", Dependencies: []string{"q/Q.d.ts", "jquery/jquery.d.ts", "q/Q.d.ts"}})
	m.Set("q/Q.d.ts", Entry{Ref: "ccc"})
	return m
}

func TestSaveFormat(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	if err := Save(context.Background(), file, sample()); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "repos": [
    {
      "url": "https://github.com/borisyankov/DefinitelyTyped.git",
      "ref": "master"
    }
  ],
  "path": "typings",
  "bundle": "typings/bundle.d.ts",
  "dependencies": {
    "atom/atom.d.ts": {
      "ref": "bbb",
      "dependencies": [
        "jquery/jquery.d.ts",
        "q/Q.d.ts"
      ]
    },
    "jquery/jquery.d.ts": {
      "ref": "aaa"
    },
    "q/Q.d.ts": {
      "ref": "ccc"
    }
  }
}
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("saved manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripIsByteStable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	ctx := context.Background()
	if err := Save(ctx, file, sample()); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(file)

	m, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(ctx, file, m); err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(file)
	if string(before) != string(after) {
		t.Errorf("round trip changed bytes:\n%s\n---\n%s", before, after)
	}
}

func TestEmptyManifestRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "dtsm.json")
	if err := Save(context.Background(), file, New()); err != nil {
		t.Fatal(err)
	}
	m, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 || m.Dependencies == nil {
		t.Errorf("Load() = %+v, want empty non-nil dependencies", m)
	}
	if m.Path != DefaultPath || m.Bundle != DefaultBundle {
		t.Errorf("Path/Bundle = %q/%q", m.Path, m.Bundle)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "dtsm.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
	if dtsmerrors.Is(err, dtsmerrors.ErrCodeManifestCorrupt) {
		t.Error("missing manifest must not be reported as corrupt")
	}
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `{"path": "typings", "dependencies": {`},
		{"wrong type", `{"path": "typings", "dependencies": []}`},
		{"no path", `{"dependencies": {}}`},
		{"traversal key", `{"path": "typings", "dependencies": {"../x.d.ts": {"ref": "a"}}}`},
		{"unclean key", `{"path": "typings", "dependencies": {"./x.d.ts": {"ref": "a"}}}`},
		{"bad repo", `{"repos": [{"url": "ftp://x", "ref": "m"}], "path": "typings", "dependencies": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "dtsm.json")
			if err := os.WriteFile(file, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(file)
			if !dtsmerrors.Is(err, dtsmerrors.ErrCodeManifestCorrupt) {
				t.Errorf("err = %v, want MANIFEST_CORRUPT", err)
			}
		})
	}
}

func TestSetRemoveClone(t *testing.T) {
	m := sample()
	c := m.Clone()

	if !m.Remove("q/Q.d.ts") {
		t.Error("Remove existing = false")
	}
	if m.Remove("q/Q.d.ts") {
		t.Error("Remove twice = true")
	}
	if !c.Has("q/Q.d.ts") {
		t.Error("Clone shares state with original")
	}
	if diff := cmp.Diff([]string{"atom/atom.d.ts", "jquery/jquery.d.ts"}, m.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestAddRepoReplacesRef(t *testing.T) {
	m := New()
	m.AddRepo(Repo{URL: "https://example.com/a.git", Ref: "master"})
	m.AddRepo(Repo{URL: "https://example.com/a.git", Ref: "main"})
	if len(m.Repos) != 1 || m.Repos[0].Ref != "main" {
		t.Errorf("Repos = %+v", m.Repos)
	}
}

func TestBundleContent(t *testing.T) {
	m := New()
	m.Set("jquery/jquery.d.ts", Entry{Ref: "a"})
	m.Set("node/node.d.ts", Entry{Ref: "b"})

	got, err := BundleContent("/project", m)
	if err != nil {
		t.Fatal(err)
	}
	want := "/// <reference path=\"jquery/jquery.d.ts\" />\n/// <reference path=\"node/node.d.ts\" />\n"
	if string(got) != want {
		t.Errorf("BundleContent() =\n%s\nwant\n%s", got, want)
	}

	m.Bundle = "bundle.d.ts"
	got, _ = BundleContent("/project", m)
	want = "/// <reference path=\"typings/jquery/jquery.d.ts\" />\n/// <reference path=\"typings/node/node.d.ts\" />\n"
	if string(got) != want {
		t.Errorf("BundleContent() with top-level bundle =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteBundle(t *testing.T) {
	base := t.TempDir()
	m := New()
	m.Set("a/a.d.ts", Entry{Ref: "x"})
	if err := WriteBundle(base, m); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(base, "typings", "bundle.d.ts")); err != nil {
		t.Errorf("bundle not written: %v", err)
	}

	m.Bundle = ""
	if err := WriteBundle(t.TempDir(), m); err != nil {
		t.Errorf("WriteBundle without bundle: %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	ctx := context.Background()

	unlock, err := Lock(ctx, file)
	if err != nil {
		t.Fatal(err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Lock(canceled, file); err == nil {
		t.Error("second Lock succeeded while first was held")
	}

	unlock()
	unlock2, err := Lock(ctx, file)
	if err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
	unlock2()
}

func TestUpdateCreatesMissing(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "dtsm.json")
	got, err := Update(context.Background(), file, func(cur *Manifest) error {
		cur.Set("jquery/jquery.d.ts", Entry{Ref: "aaa"})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, loaded); diff != "" {
		t.Errorf("saved manifest mismatch (-returned +loaded):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"jquery/jquery.d.ts"}, loaded.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateMergesWithStoredContent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	ctx := context.Background()
	if err := Save(ctx, file, sample()); err != nil {
		t.Fatal(err)
	}

	// A stale copy loaded before another writer changed the file.
	stale, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Update(ctx, file, func(cur *Manifest) error {
		cur.Set("node/node.d.ts", Entry{Ref: "ddd"})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := Update(ctx, file, func(cur *Manifest) error {
		cur.Remove("q/Q.d.ts")
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	loaded, _ := Load(file)
	want := []string{"atom/atom.d.ts", "jquery/jquery.d.ts", "node/node.d.ts"}
	if diff := cmp.Diff(want, loaded.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if stale.Has("node/node.d.ts") {
		t.Error("Update mutated an earlier Load result")
	}
}

func TestUpdateConcurrent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Update(ctx, file, func(cur *Manifest) error {
				cur.Set(fmt.Sprintf("pkg%d/pkg%d.d.ts", i, i), Entry{Ref: "r"})
				return nil
			})
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("writer %d: %v", i, err)
		}
	}

	loaded, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != writers {
		t.Errorf("Len() = %d, want %d (IDs %v)", loaded.Len(), writers, loaded.IDs())
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dtsm.json")
	ctx := context.Background()
	if err := Save(ctx, file, sample()); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(file)

	boom := errors.New("boom")
	_, err := Update(ctx, file, func(cur *Manifest) error {
		cur.Remove("jquery/jquery.d.ts")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	after, _ := os.ReadFile(file)
	if string(before) != string(after) {
		t.Error("manifest changed although the update failed")
	}
}
