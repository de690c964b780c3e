// Package parallel splits index ranges across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Workers returns n if positive and GOMAXPROCS otherwise.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// Chunks returns the number of chunks For will use for n items.
func Chunks(n, workers, minChunk int) int {
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		return 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// For executes fn over [0, n) split into contiguous chunks, one goroutine
// per chunk, and returns once every chunk is done. chunk is the index of the
// chunk in [0, Chunks(n, workers, minChunk)) and lets callers keep per-chunk
// results without synchronisation.
func For(n, workers, minChunk int, fn func(chunk, start, end int)) {
	chunks := Chunks(n, workers, minChunk)
	if chunks == 1 {
		fn(0, 0, n)
		return
	}

	chunkSize := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	wg.Add(chunks)

	for w := 0; w < chunks; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start > end {
			start = end
		}

		go func(c, s, e int) {
			defer wg.Done()
			fn(c, s, e)
		}(w, start, end)
	}

	wg.Wait()
}
