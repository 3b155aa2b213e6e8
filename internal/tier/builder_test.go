package tier

import (
	"context"
	"errors"
	"testing"

	"github.com/stratacache/strata/internal/types"
)

func TestBuilderAutoPriority(t *testing.T) {
	b := Configure().
		AddLevel(newFakeBackend("a")).
		AddLevel(newFakeBackend("b")).
		AddLevel(newFakeBackend("c"))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := a.Priorities()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected priorities %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected priorities %v, got %v", want, got)
		}
	}
}

func TestBuilderAutoPriorityAfterExplicit(t *testing.T) {
	a, err := Configure().
		AddLevelAt(5, newFakeBackend("far")).
		AddLevel(newFakeBackend("farther")).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got := a.Priorities()
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("expected [5 6], got %v", got)
	}
}

func TestBuilderValidation(t *testing.T) {
	t.Run("negative priority", func(t *testing.T) {
		b := Configure().AddLevelAt(-1, newFakeBackend("a"))

		if !errors.Is(b.Err(), types.ErrNegativePriority) {
			t.Errorf("expected ErrNegativePriority, got: %v", b.Err())
		}
		if _, err := b.Build(); !errors.Is(err, types.ErrNegativePriority) {
			t.Errorf("Build should surface the sticky error, got: %v", err)
		}
	})

	t.Run("no backends", func(t *testing.T) {
		b := Configure().AddLevel()

		if !errors.Is(b.Err(), types.ErrNoBackends) {
			t.Errorf("expected ErrNoBackends, got: %v", b.Err())
		}
	})

	t.Run("nil backend", func(t *testing.T) {
		b := Configure().AddLevel(nil)

		if !errors.Is(b.Err(), types.ErrNoBackends) {
			t.Errorf("expected ErrNoBackends, got: %v", b.Err())
		}
	})

	t.Run("sticky error suppresses later calls", func(t *testing.T) {
		b := Configure().
			AddLevelAt(-1, newFakeBackend("a")).
			AddLevel(newFakeBackend("b"))

		if !errors.Is(b.Err(), types.ErrNegativePriority) {
			t.Errorf("first error should stick, got: %v", b.Err())
		}
	})
}

func TestBuilderDuplicateDetection(t *testing.T) {
	t.Run("same handle twice in one level conflicts", func(t *testing.T) {
		shared := newFakeBackend("shared")

		b := Configure().
			AddLevelAt(0, shared).
			AddLevelAt(0, shared)

		if !errors.Is(b.Err(), types.ErrDuplicateBackend) {
			t.Errorf("expected ErrDuplicateBackend, got: %v", b.Err())
		}
	})

	t.Run("same handle twice in one call conflicts", func(t *testing.T) {
		shared := newFakeBackend("shared")

		b := Configure().AddLevelAt(0, shared, shared)
		if !errors.Is(b.Err(), types.ErrDuplicateBackend) {
			t.Errorf("expected ErrDuplicateBackend, got: %v", b.Err())
		}
	})

	t.Run("same handle at two levels is allowed", func(t *testing.T) {
		shared := newFakeBackend("shared")

		a, err := Configure().
			AddLevelAt(0, shared).
			AddLevelAt(1, shared).
			Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if a.MemberCount(0) != 1 || a.MemberCount(1) != 1 {
			t.Error("expected the handle present at both levels")
		}
	})
}

func TestBuilderLevelMerging(t *testing.T) {
	a, err := Configure().
		AddLevelAt(0, newFakeBackend("first")).
		AddLevelAt(0, newFakeBackend("second"), newFakeBackend("third")).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := a.MemberCount(0); got != 3 {
		t.Errorf("expected merged level with 3 members, got %d", got)
	}
}

func TestBuilderSnapshotIndependence(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend("shared")

	b := Configure().AddLevel(backend)

	first, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Later builder mutations must not leak into the snapshot.
	b.AddLevel(newFakeBackend("later"))

	second, err := b.Build()
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	if got := len(first.Priorities()); got != 1 {
		t.Errorf("first snapshot grew after Build: %d levels", got)
	}
	if got := len(second.Priorities()); got != 2 {
		t.Errorf("expected 2 levels in second snapshot, got %d", got)
	}

	// Both aggregators share the backend handle.
	if _, err := first.Set(ctx, "k", []byte("v"), nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, err := second.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Errorf("expected shared handle visibility, got %q, %v", v, err)
	}
}
