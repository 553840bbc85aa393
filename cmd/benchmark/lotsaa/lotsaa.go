package lotsaa

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Output is used to print elapsed time and ops/sec
var Output io.Writer

// Ops runs op in a loop on threads workers of pool until ctx is done and
// returns how many times op ran.
func Ops(ctx context.Context, pool *ants.Pool, threads int, op func(threadRand *rand.Rand, threadIdx int)) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	var totalCount atomic.Int64
	var submitErr error

	for i := 0; i < threads; i++ {
		i := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			randGen := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
			for {
				select {
				case <-ctx.Done():
					return
				default:
					op(randGen, i)
					totalCount.Add(1)
				}
			}
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit worker %d: %w", i, err)
			cancel()
			break
		}
	}
	wg.Wait()

	if Output != nil {
		WriteOutput(Output, totalCount.Load(), threads, time.Since(start))
	}
	return totalCount.Load(), submitErr
}

func commaize(n int64) string {
	s1, s2 := fmt.Sprintf("%d", n), ""
	for i, j := len(s1)-1, 0; i >= 0; i, j = i-1, j+1 {
		if j%3 == 0 && j != 0 {
			s2 = "," + s2
		}
		s2 = string(s1[i]) + s2
	}
	return s2
}

// WriteOutput writes an output line to the specified writer
func WriteOutput(w io.Writer, count int64, threads int, elapsed time.Duration) {
	fmt.Fprintf(w, "%d threads R = %s ops/sec\n", threads, commaize(int64(float64(count)/elapsed.Seconds())))
}
