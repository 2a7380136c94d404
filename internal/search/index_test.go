package search

import (
	"fmt"
	"sync"
	"testing"
)

func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.stopwords == nil || def.maxDocs != 0 || def.titleWeight != 2 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithStopwords([]string{"  The ", "", "An"})(&cfg)
	if _, ok := cfg.stopwords["the"]; !ok || len(cfg.stopwords) != 2 {
		t.Fatalf("WithStopwords failed: %#v", cfg.stopwords)
	}
	WithStopwords(nil)(&cfg)
	if cfg.stopwords != nil {
		t.Fatal("empty stopwords should disable removal")
	}

	WithMaxDocs(2)(&cfg)
	WithMaxDocs(0)(&cfg) // no-op
	if cfg.maxDocs != 2 {
		t.Fatalf("maxDocs = %d", cfg.maxDocs)
	}
	WithTitleWeight(3)(&cfg)
	WithTitleWeight(0)(&cfg) // no-op
	if cfg.titleWeight != 3 {
		t.Fatalf("titleWeight = %d", cfg.titleWeight)
	}
}

func TestTopK_RanksAndTiesDeterministic(t *testing.T) {
	idx := NewThreadIndex()
	idx.Add(1, "Gardening tips", "Tomatoes need sun and water.")
	idx.Add(2, "Quantum computing", "Qubits and entanglement explained.")
	idx.Add(3, "More gardening", "Compost for tomatoes.")
	idx.Add(4, "More gardening", "Compost for tomatoes.")

	res := idx.TopK("tomatoes compost", 3)
	if len(res) != 3 {
		t.Fatalf("want 3 results, got %+v", res)
	}
	// Identical docs tie; newer id first.
	if res[0].ThreadID != 4 || res[1].ThreadID != 3 || res[2].ThreadID != 1 {
		t.Fatalf("unexpected order: %+v", res)
	}
	if res[0].Score <= res[2].Score {
		t.Fatalf("scores not descending: %+v", res)
	}

	if got := idx.TopK("entanglement", 0); len(got) != 1 || got[0].ThreadID != 2 {
		t.Fatalf("default k query = %+v", got)
	}
}

func TestTopK_TitleWeight(t *testing.T) {
	idx := NewThreadIndex(WithTitleWeight(3))
	idx.Add(10, "Rust lifetimes", "borrow checker")
	idx.Add(11, "Borrow checker", "rust lifetimes")
	res := idx.TopK("borrow", 2)
	if len(res) != 2 || res[0].ThreadID != 11 {
		t.Fatalf("title match should rank first: %+v", res)
	}
}

func TestTopK_EmptyInputs(t *testing.T) {
	idx := NewThreadIndex()
	if idx.TopK("anything", 5) != nil {
		t.Fatal("empty index should return nil")
	}
	idx.Add(1, "hello world", "")
	if idx.TopK("   ", 5) != nil {
		t.Fatal("blank query should return nil")
	}
	if idx.TopK("the and of", 5) != nil {
		t.Fatal("stop-word-only query should return nil")
	}
	if idx.TopK("nomatch", 5) != nil {
		t.Fatal("no overlap should return nil")
	}
}

func TestAddRemoveAndReindex(t *testing.T) {
	idx := NewThreadIndex()
	idx.Add(1, "alpha", "beta")
	if idx.Len() != 1 {
		t.Fatalf("Len = %d", idx.Len())
	}
	idx.Add(1, "gamma", "delta")
	if idx.TopK("alpha", 5) != nil || len(idx.TopK("gamma", 5)) != 1 {
		t.Fatal("re-adding should replace tokens")
	}
	idx.Add(1, "the", "")
	if idx.Len() != 0 {
		t.Fatal("doc without tokens should be dropped")
	}
	idx.Add(2, "x", "y")
	idx.Remove(2)
	idx.Remove(99)
	if idx.Len() != 0 {
		t.Fatalf("Len after remove = %d", idx.Len())
	}
}

func TestMaxDocs_EvictsOldest(t *testing.T) {
	idx := NewThreadIndex(WithMaxDocs(2))
	idx.Add(5, "five", "")
	idx.Add(6, "six", "")
	idx.Add(7, "seven", "")
	if idx.Len() != 2 || idx.TopK("five", 1) != nil {
		t.Fatal("oldest id should be evicted")
	}
	idx.Add(1, "ancient", "")
	if idx.TopK("ancient", 1) != nil {
		t.Fatal("id older than everything indexed should be skipped when full")
	}
	idx.Add(6, "six again", "")
	if idx.Len() != 2 {
		t.Fatal("re-adding existing id must not evict")
	}
}

func TestConcurrentUse(t *testing.T) {
	idx := NewThreadIndex()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				idx.Add(int64(w*100+i), fmt.Sprintf("topic %d", i), "shared words here")
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = idx.TopK("shared words", 5)
			}
		}()
	}
	wg.Wait()
	if idx.Len() != 200 {
		t.Fatalf("Len = %d; want 200", idx.Len())
	}
}

func TestTokenizeAndOverlap(t *testing.T) {
	toks := tokenize("Hello, hello WORLD 42", nil)
	if len(toks) != 3 {
		t.Fatalf("tokenize = %v", toks)
	}
	if tokenize("!!!", nil) != nil {
		t.Fatal("punctuation only should be nil")
	}
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"y": {}, "z": {}, "w": {}}
	if overlap(a, b) != 1 || overlap(b, a) != 1 || overlap(nil, a) != 0 {
		t.Fatal("overlap mismatch")
	}
}
