package logctx

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestBindMergeAndShadow(t *testing.T) {
	outer := Bind(context.Background(), logrus.Fields{"a": 1, "keep": "outer"})
	inner := Bind(outer, logrus.Fields{"a": 9, "b": 2})

	got := Fields(inner)
	if got["a"] != 9 || got["b"] != 2 || got["keep"] != "outer" {
		t.Errorf("inner fields = %v, want a=9 b=2 keep=outer", got)
	}

	// The outer view must be untouched by the nested binding.
	got = Fields(outer)
	if got["a"] != 1 || got["keep"] != "outer" {
		t.Errorf("outer fields = %v, want a=1 keep=outer", got)
	}
	if _, ok := got["b"]; ok {
		t.Error("outer view leaked the nested binding")
	}
}

func TestBindRestoredAfterPanic(t *testing.T) {
	outer := Bind(context.Background(), logrus.Fields{"scope": "outer"})

	func() {
		defer func() { _ = recover() }()
		inner := Bind(outer, logrus.Fields{"scope": "inner"})
		_ = Fields(inner)
		panic("boom")
	}()

	if got := Fields(outer)["scope"]; got != "outer" {
		t.Errorf("scope after panic = %v, want outer", got)
	}
}

func TestBindSiblingIsolation(t *testing.T) {
	parent := Bind(context.Background(), logrus.Fields{"shared": true})

	var wg sync.WaitGroup
	errs := make(chan string, 2)
	for _, name := range []string{"left", "right"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			ctx := Bind(parent, logrus.Fields{"worker": name})
			got := Fields(ctx)
			if got["worker"] != name {
				errs <- "worker binding lost for " + name
			}
			if got["shared"] != true {
				errs <- "parent binding lost for " + name
			}
		}(name)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}

	if _, ok := Fields(parent)["worker"]; ok {
		t.Error("sibling binding leaked into the parent view")
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	ctx := Bind(context.Background(), logrus.Fields{"a": 1})
	Fields(ctx)["a"] = 999
	if got := Fields(ctx)["a"]; got != 1 {
		t.Errorf("fields mutated through the snapshot: a = %v", got)
	}
}

func TestLoggerCarriesAmbientFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	ctx := WithLogger(context.Background(), logger)
	ctx = Bind(ctx, logrus.Fields{"request_id": "r-1"})

	Logger(ctx).Info("hello")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no entry captured")
	}
	if entry.Data["request_id"] != "r-1" {
		t.Errorf("request_id = %v, want r-1", entry.Data["request_id"])
	}
}

func TestContextHookMergesFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.AddHook(ContextHook{})

	ctx := Bind(context.Background(), logrus.Fields{"ambient": "yes", "who": "ctx"})

	logger.WithContext(ctx).WithField("who", "entry").Info("hello")

	entry := hook.LastEntry()
	if entry.Data["ambient"] != "yes" {
		t.Errorf("ambient = %v, want yes", entry.Data["ambient"])
	}
	// Explicit entry fields win over ambient ones.
	if entry.Data["who"] != "entry" {
		t.Errorf("who = %v, want entry", entry.Data["who"])
	}
}

func TestContextHookNoContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.AddHook(ContextHook{})

	logger.Info("plain")

	if len(hook.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(hook.Entries))
	}
}
