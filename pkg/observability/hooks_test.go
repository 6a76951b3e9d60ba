package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	i := NoopInstallHooks{}
	i.OnClosureStart(ctx, 2)
	i.OnClosureComplete(ctx, 10, 1, time.Second, nil)
	i.OnManifestSave(ctx, "dtsm.json", 3, nil)

	f := NoopFetchHooks{}
	f.OnFetchStart(ctx, "jquery/jquery.d.ts")
	f.OnFetchComplete(ctx, "jquery/jquery.d.ts", 1024, time.Second, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "file")
	c.OnCacheMiss(ctx, "redis")
	c.OnCacheSet(ctx, "file", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.github.com", "/repos/a/b/git/trees/master")
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/a/b/git/trees/master", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/a/b/git/trees/master", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Install().(NoopInstallHooks); !ok {
		t.Error("Install() should return NoopInstallHooks by default")
	}
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Fetch() should return NoopFetchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	fh := &recordingFetchHooks{}
	SetFetchHooks(fh)
	if Fetch() != fh {
		t.Error("SetFetchHooks should set custom hooks")
	}

	SetFetchHooks(nil)
	if Fetch() != fh {
		t.Error("SetFetchHooks(nil) should keep the current hooks")
	}

	Fetch().OnFetchStart(context.Background(), "a.d.ts")
	if got := fh.started(); len(got) != 1 || got[0] != "a.d.ts" {
		t.Errorf("started = %v, want [a.d.ts]", got)
	}

	Reset()
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Reset should restore NoopFetchHooks")
	}
}

type recordingFetchHooks struct {
	NoopFetchHooks
	mu  sync.Mutex
	ids []string
}

func (h *recordingFetchHooks) OnFetchStart(_ context.Context, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, id)
}

func (h *recordingFetchHooks) started() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ids...)
}
