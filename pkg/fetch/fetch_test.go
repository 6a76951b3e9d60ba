package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	dtsmerrors "github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/index"
)

type mockIndex struct {
	files map[string]string
	refs  map[string]string
	calls atomic.Int32
}

func (m *mockIndex) FetchFile(_ context.Context, id string) ([]byte, error) {
	m.calls.Add(1)
	data, ok := m.files[id]
	if !ok {
		return nil, index.ErrFileNotFound
	}
	return []byte(data), nil
}

func (m *mockIndex) Ref(_ context.Context, id string) (string, error) {
	ref, ok := m.refs[id]
	if !ok {
		return "", errors.New("no ref")
	}
	return ref, nil
}

func TestFetch(t *testing.T) {
	idx := &mockIndex{
		files: map[string]string{"jquery/jquery.d.ts": "interface JQuery {}"},
		refs:  map[string]string{"jquery/jquery.d.ts": "abc123"},
	}
	o := New(idx, idx)

	f, err := o.Fetch(context.Background(), "jquery/jquery.d.ts")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.ID != "jquery/jquery.d.ts" || string(f.Content) != "interface JQuery {}" || f.Ref != "abc123" {
		t.Errorf("File = %+v", f)
	}
}

func TestFetchMissingFile(t *testing.T) {
	idx := &mockIndex{files: map[string]string{}}
	o := New(idx, idx)

	_, err := o.Fetch(context.Background(), "missing/missing.d.ts")
	var fe *dtsmerrors.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %T %v, want *FetchError", err, err)
	}
	if fe.Identifier != "missing/missing.d.ts" {
		t.Errorf("Identifier = %q", fe.Identifier)
	}
	if !errors.Is(err, index.ErrFileNotFound) {
		t.Error("cause should be ErrFileNotFound")
	}
	if !dtsmerrors.Is(err, dtsmerrors.ErrCodeFetch) {
		t.Errorf("code = %q, want FETCH_FAILED", dtsmerrors.GetCode(err))
	}
	if n := idx.calls.Load(); n != 1 {
		t.Errorf("FetchFile called %d times, want exactly 1", n)
	}
}

func TestFetchWithoutReferencer(t *testing.T) {
	idx := &mockIndex{files: map[string]string{"a/a.d.ts": "x"}}
	f, err := New(idx, nil).Fetch(context.Background(), "a/a.d.ts")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.Ref != "" {
		t.Errorf("Ref = %q, want empty", f.Ref)
	}
}

func TestMaterialize(t *testing.T) {
	root := t.TempDir()
	files := []*File{
		{ID: "jquery/jquery.d.ts", Content: []byte("jq")},
		{ID: "node/node.d.ts", Content: []byte("node")},
		{ID: "top.d.ts", Content: []byte("top")},
		{ID: "../escape.d.ts", Content: []byte("nope")},
	}

	errs := Materialize(root, files, 2)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly the escaping path", errs)
	}
	if _, ok := errs["../escape.d.ts"]; !ok {
		t.Errorf("expected error for ../escape.d.ts, got %v", errs)
	}

	for _, f := range files[:3] {
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.ID)))
		if err != nil {
			t.Fatalf("read %s: %v", f.ID, err)
		}
		if string(got) != string(f.Content) {
			t.Errorf("%s = %q, want %q", f.ID, got, f.Content)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.d.ts")); !os.IsNotExist(err) {
		t.Error("file escaped the root")
	}
}

func TestMaterializeOverwrites(t *testing.T) {
	root := t.TempDir()
	Materialize(root, []*File{{ID: "a/a.d.ts", Content: []byte("old")}}, 0)
	Materialize(root, []*File{{ID: "a/a.d.ts", Content: []byte("new")}}, 0)

	got, _ := os.ReadFile(filepath.Join(root, "a", "a.d.ts"))
	if string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
	entries, _ := os.ReadDir(filepath.Join(root, "a"))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, temp files left behind", len(entries))
	}
}
