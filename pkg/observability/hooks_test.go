package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	v := NoopViewHooks{}
	v.OnBuild("detailed", 26, 46)
	v.OnToggle("detailed", "collapsed")

	p := NoopPipelineHooks{}
	p.OnDatasetLoad(ctx, "embedded", 6, 20, nil)
	p.OnLayoutStart(ctx, "force", 26)
	p.OnLayoutComplete(ctx, "force", time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/api/graph")
	h.OnResponse(ctx, "GET", "/api/graph", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := View().(NoopViewHooks); !ok {
		t.Error("View() should return NoopViewHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
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
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

func TestInstallCounters(t *testing.T) {
	Reset()
	defer Reset()

	ctx := context.Background()
	c := &Counters{}
	Install(c)

	View().OnBuild("collapsed", 14, 31)
	View().OnToggle("collapsed", "detailed")
	Pipeline().OnLayoutComplete(ctx, "force", time.Millisecond, nil)
	Pipeline().OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, errors.New("boom"))
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheMiss(ctx, "layout")
	Cache().OnCacheMiss(ctx, "artifact")
	HTTP().OnRequest(ctx, "GET", "/healthz")
	HTTP().OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
	HTTP().OnResponse(ctx, "GET", "/api/nodes/{key}", 404, time.Millisecond)

	s := c.Snapshot()
	want := Snapshot{
		Builds: 1, Toggles: 1, Layouts: 1, Renders: 1, Failures: 1,
		CacheHits: 1, CacheMisses: 2, Requests: 1,
	}
	if s.Builds != want.Builds || s.Toggles != want.Toggles || s.Layouts != want.Layouts ||
		s.Renders != want.Renders || s.Failures != want.Failures || s.CacheHits != want.CacheHits ||
		s.CacheMisses != want.CacheMisses || s.Requests != want.Requests {
		t.Errorf("Snapshot() = %+v, want %+v", s, want)
	}
	if s.Statuses[200] != 1 || s.Statuses[404] != 1 {
		t.Errorf("Statuses = %v", s.Statuses)
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)

	h.OnBuild("detailed", 26, 46)
	h.OnLayoutComplete(context.Background(), "neato", 0, errors.New("no graphviz"))

	out := buf.String()
	for _, want := range []string{"view built", "mode=detailed", "nodes=26", "layout failed", "no graphviz"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Counters{}, &Counters{}
	m := Multi{a, b}
	m.OnBuild("detailed", 1, 0)
	m.OnCacheHit(context.Background(), "layout")
	if a.Builds.Load() != 1 || b.Builds.Load() != 1 || a.CacheHits.Load() != 1 || b.CacheHits.Load() != 1 {
		t.Errorf("fan-out missed a member: a=%+v b=%+v", a.Snapshot(), b.Snapshot())
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
