package diff

import (
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"storewatch/internal/catalog"
)

func items(pairs ...string) catalog.Collection {
	out := make(catalog.Collection, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, catalog.Item{ID: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func ids(c catalog.Collection) []string {
	if len(c) == 0 {
		return nil
	}
	return c.IDs()
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		old, fresh  catalog.Collection
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:  "identical",
			old:   items("a", "Alpha", "b", "Beta"),
			fresh: items("a", "Alpha", "b", "Beta"),
		},
		{
			name:  "reordered",
			old:   items("a", "Alpha", "b", "Beta"),
			fresh: items("b", "Beta", "a", "Alpha"),
		},
		{
			name:      "empty old",
			old:       nil,
			fresh:     items("a", "Alpha", "b", "Beta"),
			wantAdded: []string{"a", "b"},
		},
		{
			name:        "empty fresh",
			old:         items("a", "Alpha", "b", "Beta"),
			fresh:       catalog.Collection{},
			wantRemoved: []string{"a", "b"},
		},
		{
			name:        "mixed delta",
			old:         items("a", "Alpha", "b", "Beta"),
			fresh:       items("a", "Alpha", "c", "Gamma"),
			wantAdded:   []string{"c"},
			wantRemoved: []string{"b"},
		},
		{
			name:  "renamed item is unchanged",
			old:   items("a", "Alpha"),
			fresh: items("a", "Alpha v2"),
		},
		{
			name:        "order follows source",
			old:         items("r3", "", "keep", "", "r1", "", "r2", ""),
			fresh:       items("n2", "", "keep", "", "n9", "", "n1", ""),
			wantAdded:   []string{"n2", "n9", "n1"},
			wantRemoved: []string{"r3", "r1", "r2"},
		},
		{
			name:      "duplicate ids reported once",
			old:       items("a", "Alpha"),
			fresh:     items("a", "Alpha", "b", "Beta", "b", "Beta again"),
			wantAdded: []string{"b"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.old, tt.fresh)
			if !reflect.DeepEqual(ids(got.Added), tt.wantAdded) {
				t.Fatalf("added = %v, want %v", ids(got.Added), tt.wantAdded)
			}
			if !reflect.DeepEqual(ids(got.Removed), tt.wantRemoved) {
				t.Fatalf("removed = %v, want %v", ids(got.Removed), tt.wantRemoved)
			}
			if got.Empty() != (len(tt.wantAdded) == 0 && len(tt.wantRemoved) == 0) {
				t.Fatalf("Empty() = %v", got.Empty())
			}
		})
	}
}

func TestComputeMixedDeltaKeepsItems(t *testing.T) {
	got := Compute(items("a", "Alpha", "b", "Beta"), items("a", "Alpha", "c", "Gamma"))
	if len(got.Added) != 1 || got.Added[0].Name != "Gamma" {
		t.Fatalf("added = %+v", got.Added)
	}
	if len(got.Removed) != 1 || got.Removed[0].Name != "Beta" {
		t.Fatalf("removed = %+v", got.Removed)
	}
}

// Randomized check of the set-difference and ordering properties.
func TestComputeSetDifferenceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	gen := func() catalog.Collection {
		n := rng.Intn(30)
		seen := map[string]bool{}
		var out catalog.Collection
		for i := 0; i < n; i++ {
			id := strconv.Itoa(rng.Intn(40))
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, catalog.Item{ID: id, Name: "n" + id})
		}
		return out
	}
	minus := func(a, b catalog.Collection) []string {
		in := map[string]bool{}
		for _, it := range b {
			in[it.ID] = true
		}
		var out []string
		for _, it := range a {
			if !in[it.ID] {
				out = append(out, it.ID)
			}
		}
		return out
	}

	for i := 0; i < 200; i++ {
		a, b := gen(), gen()
		got := Compute(a, b)
		if want := minus(b, a); !reflect.DeepEqual(ids(got.Added), want) {
			t.Fatalf("iteration %d: added = %v, want %v", i, ids(got.Added), want)
		}
		if want := minus(a, b); !reflect.DeepEqual(ids(got.Removed), want) {
			t.Fatalf("iteration %d: removed = %v, want %v", i, ids(got.Removed), want)
		}
		if self := Compute(a, a); !self.Empty() {
			t.Fatalf("iteration %d: diff(A, A) not empty: %+v", i, self)
		}
	}
}
