package parallel

import (
	"sync"
	"testing"
)

func TestParallelize(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{name: "zero items", items: 0},
		{name: "single item", items: 1},
		{name: "fewer items than cores", items: 3},
		{name: "many items", items: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			covered := make([]bool, tt.items)

			Parallelize(tt.items, func(start, end int) {
				mu.Lock()
				defer mu.Unlock()
				for i := start; i < end; i++ {
					if covered[i] {
						t.Errorf("index %d covered twice", i)
					}
					covered[i] = true
				}
			})

			for i, c := range covered {
				if !c {
					t.Errorf("index %d not covered", i)
				}
			}
		})
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	// Below the threshold fn must run exactly once over the full range.
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("expected full range [0, 10), got [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 sequential call, got %d", calls)
	}

	// Above the threshold every index is still covered exactly once.
	var mu sync.Mutex
	covered := make([]bool, 500)
	ParallelizeWithThreshold(500, 100, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		for i := start; i < end; i++ {
			covered[i] = true
		}
	})
	for i, c := range covered {
		if !c {
			t.Errorf("index %d not covered", i)
		}
	}
}
