package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// fakeService returns canned items per storefront and fails for storefronts
// listed in fail.
type fakeService struct {
	stores []Storefront
	items  map[Storefront][]Item
	fail   map[Storefront]error
	calls  atomic.Int32
}

func (f *fakeService) Storefronts(ctx context.Context) ([]Storefront, error) {
	return f.stores, nil
}

func (f *fakeService) Items(ctx context.Context, sf Storefront, kind ItemKind) ([]Item, error) {
	f.calls.Add(1)
	if err, ok := f.fail[sf]; ok {
		return nil, err
	}
	return f.items[sf], nil
}

func genre(id, name string) Item {
	return Item{ID: id, Kind: KindGenres, Name: name}
}

// TestAggregateMergeDedup runs the canonical two-storefront example: "us" and
// "gb" overlap on genre 2, so the merged result must contain exactly one entry
// per ID. Which of the two localised names survives for genre 2 depends on
// completion order, so only the ID set is asserted.
func TestAggregateMergeDedup(t *testing.T) {
	svc := &fakeService{
		stores: []Storefront{"us", "gb"},
		items: map[Storefront][]Item{
			"us": {genre("1", "Pop"), genre("2", "Rock")},
			"gb": {genre("2", "Rock (UK)"), genre("3", "Grime")},
		},
	}
	res, err := Aggregator{Service: svc}.Aggregate(context.Background(), KindGenres)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != Done {
		t.Fatalf("expected state done got %s", res.State)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items got %d", len(res.Items))
	}
	got := map[string]string{}
	for _, it := range res.Items {
		if _, dup := got[it.ID]; dup {
			t.Errorf("duplicate id %s in result", it.ID)
		}
		got[it.ID] = it.Name
	}
	for _, id := range []string{"1", "2", "3"} {
		if _, ok := got[id]; !ok {
			t.Errorf("missing id %s in result", id)
		}
	}
	if got["2"] != "Rock" && got["2"] != "Rock (UK)" {
		t.Errorf("unexpected name for id 2: %q", got["2"])
	}
}

// TestAggregateBestEffort verifies that one failing storefront does not deny
// results from the others and that the failure is reported with its tag.
func TestAggregateBestEffort(t *testing.T) {
	svc := &fakeService{
		stores: []Storefront{"us", "gb", "jp"},
		items: map[Storefront][]Item{
			"us": {genre("1", "Pop")},
			"jp": {genre("2", "J-Pop")},
		},
		fail: map[Storefront]error{"gb": fmt.Errorf("boom")},
	}
	res, err := Aggregator{Service: svc}.Aggregate(context.Background(), KindGenres)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != DoneWithFailures {
		t.Fatalf("expected done-with-partial-failures got %s", res.State)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(res.Items))
	}
	if len(res.Failures) != 1 || res.Failures[0].Storefront != "gb" {
		t.Fatalf("expected failure tagged gb got %+v", res.Failures)
	}
}

// TestAggregateFailFast checks that the first failure cancels the rest of the
// fan-out. Limit 1 serialises the fetches so no task can already be in flight
// when the first one fails.
func TestAggregateFailFast(t *testing.T) {
	svc := &fakeService{
		stores: []Storefront{"us", "gb", "jp", "de", "fr"},
		fail:   map[Storefront]error{"us": fmt.Errorf("boom")},
	}
	res, err := Aggregator{Service: svc, Policy: FailFast, Limit: 1}.Aggregate(context.Background(), KindGenres)
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StorefrontError
	if !errors.As(err, &se) || se.Storefront != "us" {
		t.Fatalf("expected error tagged us got %v", err)
	}
	if res.State != Failed {
		t.Fatalf("expected state failed got %s", res.State)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items got %d", len(res.Items))
	}
	if n := svc.calls.Load(); n != 1 {
		t.Fatalf("expected 1 fetch before short-circuit, got %d", n)
	}
}

// TestAggregateEmptyStorefronts: an empty directory yields an empty Done
// result without a single fetch.
func TestAggregateEmptyStorefronts(t *testing.T) {
	svc := &fakeService{}
	res, err := Aggregator{Service: svc}.Aggregate(context.Background(), KindGenres)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != Done || len(res.Items) != 0 || len(res.Failures) != 0 {
		t.Fatalf("expected empty done result got %+v", res)
	}
	if n := svc.calls.Load(); n != 0 {
		t.Fatalf("expected no fetches got %d", n)
	}
}

// TestAggregateAllFail: when every storefront fails under best-effort the call
// reports an error instead of a silent empty result.
func TestAggregateAllFail(t *testing.T) {
	svc := &fakeService{
		stores: []Storefront{"us", "gb"},
		fail: map[Storefront]error{
			"us": fmt.Errorf("boom us"),
			"gb": fmt.Errorf("boom gb"),
		},
	}
	res, err := Aggregator{Service: svc}.Aggregate(context.Background(), KindGenres)
	if err == nil {
		t.Fatal("expected error")
	}
	if res.State != Failed {
		t.Fatalf("expected state failed got %s", res.State)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures got %d", len(res.Failures))
	}
}

// TestAggregateTimeout: a blocking fetch trips the per-call deadline and the
// whole call fails with a TimeoutError.
func TestAggregateTimeout(t *testing.T) {
	svc := ServiceFuncs{
		StorefrontsFunc: func(ctx context.Context) ([]Storefront, error) {
			return []Storefront{"us"}, nil
		},
		ItemsFunc: func(ctx context.Context, sf Storefront, kind ItemKind) ([]Item, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	res, err := Aggregator{Service: svc, Timeout: 20 * time.Millisecond}.Aggregate(context.Background(), KindGenres)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError got %v", err)
	}
	if res.State != Failed {
		t.Fatalf("expected state failed got %s", res.State)
	}
}

func TestAggregateUnknownKind(t *testing.T) {
	svc := &fakeService{stores: []Storefront{"us"}}
	_, err := Aggregator{Service: svc}.Aggregate(context.Background(), ItemKind("bogus"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError got %v", err)
	}
}

// TestAllGenres exercises the convenience wrapper.
func TestAllGenres(t *testing.T) {
	svc := &fakeService{
		stores: []Storefront{"us"},
		items:  map[Storefront][]Item{"us": {genre("1", "Pop")}},
	}
	items, err := AllGenres(context.Background(), svc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Pop" {
		t.Fatalf("unexpected items %+v", items)
	}
}
