package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) (*Store, *scs.SessionManager, context.Context) {
	t.Helper()

	sm := scs.New()

	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}

	return NewStore(sm, log), sm, ctx
}

func shirt() product.Product {
	return product.Product{
		ID:       "7b0f4d0e-3f3a-4f5a-9a34-7a3f9f1c2d10",
		Name:     "Shirt",
		Price:    1000,
		Currency: "BGN",
		Colors:   pq.StringArray{"red", "blue"},
		Sizes:    pq.StringArray{"M", "L"},
	}
}

func TestAddAlwaysAppends(t *testing.T) {
	store, _, ctx := newTestStore(t)

	store.Add(ctx, shirt(), 1, "red", "M")
	c := store.Add(ctx, shirt(), 1, "red", "M")

	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", len(c.Lines))
	}
	if c.Lines[0].ID == c.Lines[1].ID {
		t.Fatal("repeat adds must produce distinct line IDs")
	}
	if c.Count() != 2 {
		t.Fatalf("expected count 2, got %d", c.Count())
	}
}

func TestQuantityFloor(t *testing.T) {
	store, _, ctx := newTestStore(t)

	c := store.Add(ctx, shirt(), 3, "", "")
	line := c.Lines[0].ID

	for _, n := range []int{0, -1, -100} {
		c = store.SetQuantity(ctx, line, n)
		if got := c.Lines[0].Quantity; got != 3 {
			t.Fatalf("SetQuantity(%d) changed quantity to %d, want 3 untouched", n, got)
		}
	}

	c = store.SetQuantity(ctx, line, 5)
	if got := c.Lines[0].Quantity; got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}
}

func TestRemoveIsNoOpWhenAbsent(t *testing.T) {
	store, _, ctx := newTestStore(t)

	store.Add(ctx, shirt(), 1, "", "")
	c := store.Remove(ctx, "no-such-line")

	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line after removing an absent ID, got %d", len(c.Lines))
	}

	c = store.Remove(ctx, c.Lines[0].ID)
	if len(c.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(c.Lines))
	}
}

func TestSetOptionsPartialMerge(t *testing.T) {
	store, _, ctx := newTestStore(t)

	c := store.Add(ctx, shirt(), 1, "red", "")
	line := c.Lines[0].ID

	size := "L"
	c = store.SetOptions(ctx, line, nil, &size)

	if c.Lines[0].Color != "red" {
		t.Fatalf("color should be untouched, got %q", c.Lines[0].Color)
	}
	if c.Lines[0].Size != "L" {
		t.Fatalf("expected size L, got %q", c.Lines[0].Size)
	}
}

func TestTotalAndIncomplete(t *testing.T) {
	store, _, ctx := newTestStore(t)

	store.Add(ctx, shirt(), 2, "red", "M")
	c := store.Add(ctx, shirt(), 1, "", "M")

	if got := c.Total(); got != 3000 {
		t.Fatalf("expected total 3000, got %d", got)
	}

	inc := c.Incomplete()
	if len(inc) != 1 || inc[0] != c.Lines[1].ID {
		t.Fatalf("expected exactly the second line to be incomplete, got %v", inc)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store, sm, ctx := newTestStore(t)

	want := store.Add(ctx, shirt(), 2, "red", "M")

	token, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("committing session: %v", err)
	}

	// A fresh context from the committed token is a page reload.
	ctx2, err := sm.Load(context.Background(), token)
	if err != nil {
		t.Fatalf("reloading session: %v", err)
	}

	got := store.Load(ctx2)
	if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Fatalf("cart changed across reload (-want +got):\n%s", diff)
	}
}

func TestCorruptPayloadDegradesToEmpty(t *testing.T) {
	store, sm, ctx := newTestStore(t)

	store.Add(ctx, shirt(), 1, "", "")
	sm.Put(ctx, "cart", []byte("{definitely-not-json"))

	c := store.Load(ctx)
	if len(c.Lines) != 0 {
		t.Fatalf("corrupt payload must load as empty cart, got %d lines", len(c.Lines))
	}

	// The corrupt blob is discarded, a subsequent add starts clean.
	c = store.Add(ctx, shirt(), 1, "", "")
	if len(c.Lines) != 1 {
		t.Fatalf("expected 1 line after recovery, got %d", len(c.Lines))
	}
}

func TestClear(t *testing.T) {
	store, _, ctx := newTestStore(t)

	store.Add(ctx, shirt(), 1, "", "")
	store.Clear(ctx)

	if c := store.Load(ctx); len(c.Lines) != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", len(c.Lines))
	}
}
