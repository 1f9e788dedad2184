package downloader

import (
	"context"
	"sync"
)

// Concurrency bounds.
const (
	DefaultWorkers = 4
	MaxWorkers     = 16
)

// DownloadAll runs jobs on a fixed set of workers. onDone, when set, is called
// after each job from the worker goroutine. Results follow job order; jobs
// skipped after cancellation carry ctx's error.
func (d *Downloader) DownloadAll(ctx context.Context, jobs []Job, dir string, workers int, onDone func(*Result)) []*Result {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	results := make([]*Result, len(jobs))

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				var r *Result
				if err := ctx.Err(); err != nil {
					r = &Result{Job: jobs[i], Err: err}
				} else {
					r = d.Download(ctx, jobs[i], dir)
				}
				results[i] = r
				if onDone != nil {
					onDone(r)
				}
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()
	return results
}

// Summary totals a finished run.
type Summary struct {
	Succeeded int
	Failed    int
	Bytes     int64
}

// Summarize counts successes, failures and bytes written.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Bytes += r.Size
	}
	return s
}
