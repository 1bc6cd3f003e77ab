// internal/downloader/pool.go
package downloader

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
)

const maxConcurrency = 50

// WorkerPool manages concurrent downloads using a worker pool pattern
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a new worker pool with specified concurrency
func NewWorkerPool(opts Options) *WorkerPool {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}

	return &WorkerPool{
		downloader:  New(opts),
		concurrency: concurrency,
	}
}

type job struct {
	index int
	url   string
	path  string
}

// DownloadCollection downloads every screen of c into <outDir>/<c.ID>/.
// Results are returned in screen order regardless of completion order.
// onDone, if set, is called once per finished download from worker goroutines.
func (wp *WorkerPool) DownloadCollection(ctx context.Context, c models.ScreenCollection, outDir string, onDone func(*Result)) []*Result {
	dir := filepath.Join(outDir, c.ID)
	jobs := make([]job, len(c.Screens))
	for i, u := range c.Screens {
		jobs[i] = job{index: i, url: u, path: filepath.Join(dir, ScreenFilename(i, u))}
	}
	return wp.run(ctx, jobs, onDone)
}

func (wp *WorkerPool) run(ctx context.Context, jobs []job, onDone func(*Result)) []*Result {
	results := make([]*Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 1; w <= wp.concurrency; w++ {
		wg.Add(1)
		go wp.worker(ctx, w, queue, results, onDone, &wg)
	}

	go func() {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	// Jobs never handed out because of cancellation
	for i, r := range results {
		if r == nil {
			results[i] = &Result{Index: i, URL: jobs[i].url, FilePath: jobs[i].path, Error: ctx.Err()}
		}
	}
	return results
}

// worker processes download jobs; each writes only its own result slot
func (wp *WorkerPool) worker(ctx context.Context, id int, queue <-chan job, results []*Result, onDone func(*Result), wg *sync.WaitGroup) {
	defer wg.Done()

	log.Debug().Int("worker_id", id).Msg("Worker started")

	for j := range queue {
		log.Debug().
			Int("worker_id", id).
			Int("index", j.index).
			Str("url", j.url).
			Msg("Worker processing download")

		result := wp.downloader.Download(ctx, j.url, j.path)
		result.Index = j.index
		results[j.index] = result

		if onDone != nil {
			onDone(result)
		}
	}

	log.Debug().Int("worker_id", id).Msg("Worker finished")
}
