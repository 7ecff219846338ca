package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	m := NoopMoveHooks{}
	m.OnResolve(ctx, "kitchen", "main-floor", 1)
	m.OnMoveRejected(ctx, "kitchen", "pantry", nil)
	m.OnMoveApplied(ctx, "kitchen", "main-floor", 1, time.Millisecond)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "viewstate")
	c.OnCacheMiss(ctx, "viewstate")
	c.OnCacheSet(ctx, "viewstate", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/moves")
	h.OnResponse(ctx, "POST", "/moves", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Move().(NoopMoveHooks); !ok {
		t.Error("Move() should return NoopMoveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customMove := &testMoveHooks{}
	SetMoveHooks(customMove)
	if Move() != customMove {
		t.Error("SetMoveHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Move().(NoopMoveHooks); !ok {
		t.Error("Reset() should restore NoopMoveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testMoveHooks{}
	SetMoveHooks(custom)
	SetMoveHooks(nil)

	if Move() != custom {
		t.Error("SetMoveHooks(nil) should be ignored")
	}

	Reset()
}

type testMoveHooks struct{ NoopMoveHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
