package raster

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var workerLimit atomic.Int64

func init() {
	SetWorkers(0)
}

// SetWorkers bounds the goroutines a single operation may use.
// n <= 0 resets the bound to runtime.GOMAXPROCS(0).
func SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	workerLimit.Store(int64(n))
}

// Workers returns the current per-operation goroutine bound.
func Workers() int {
	return int(workerLimit.Load())
}

// parallelRange splits [0, n) into contiguous bands and calls fn once per
// band. It returns after every band has finished.
func parallelRange(n int, fn func(lo, hi int)) {
	w := Workers()
	if w > n {
		w = n
	}
	if w <= 1 {
		fn(0, n)
		return
	}

	band := (n + w - 1) / w
	var g errgroup.Group
	g.SetLimit(w)
	for lo := 0; lo < n; lo += band {
		lo := lo // per-iteration copy (go1.21 loop semantics)
		hi := min(lo+band, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
