package factor

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every index in [0, n). With parallel set the calls are
// spread over at most GOMAXPROCS goroutines; fn must only write to state
// owned by its index. The first error wins.
func forEach(n int, parallel bool, fn func(i int) error) error {
	if !parallel || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
