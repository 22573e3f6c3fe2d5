package querycache

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/croesus-labs/querycache/types"
)

// WarmSpec names one canonical access key of an entity together with
// the real loader that computes it — the same loader the serving layer
// uses, not a placeholder value.
type WarmSpec struct {
	Key    string
	Tier   string
	Tags   []string
	Loader types.LoaderFunc
}

// WarmState is the terminal-or-not state of one warming job.
type WarmState string

const (
	WarmScheduled WarmState = "scheduled"
	WarmRunning   WarmState = "running"
	WarmSucceeded WarmState = "succeeded"
	WarmFailed    WarmState = "failed"
)

// WarmResult reports the outcome of one warming job. Production code
// ignores it (failures are logged and swallowed — warming is an
// optimization, not a correctness requirement); tests inspect it.
type WarmResult struct {
	Kind   string
	ID     string
	State  WarmState
	Warmed int   // keys successfully populated
	Err    error // aggregated per-key failures, nil on success
}

type warmJob struct {
	kind  string
	id    string
	specs []WarmSpec
	done  chan WarmResult
}

/*
Warmer pre-populates the cache for entities that just became publicly
visible, so the first real reader never pays the full computation cost.

Jobs are queued on a buffered channel and run by one background worker
— the triggering write returns to its caller before warming completes.
A warming failure leaves the key simply uncached (the next organic
miss is the retry path) rather than corrupting state; there are no
retries and no error propagation to the write path.
*/
type Warmer struct {
	cache *Cache
	log   *logrus.Logger

	jobs chan warmJob
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// NewWarmer creates a warmer over the cache and starts its worker.
// buffer bounds how many jobs may be queued; zero or negative gets a
// sane default. When the queue is full, new jobs are dropped (and
// reported Failed) instead of blocking the write path.
func NewWarmer(c *Cache, log *logrus.Logger, buffer int) *Warmer {
	if log == nil {
		log = c.log
	}
	if buffer <= 0 {
		buffer = 64
	}

	w := &Warmer{
		cache: c,
		log:   log,
		jobs:  make(chan warmJob, buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

/*
WarmNewEntity schedules warming for an entity's canonical access keys
and returns immediately. The returned channel delivers exactly one
WarmResult when the job reaches a terminal state; callers are free to
ignore it.
*/
func (w *Warmer) WarmNewEntity(kind, id string, specs []WarmSpec) <-chan WarmResult {
	done := make(chan WarmResult, 1)
	job := warmJob{kind: kind, id: id, specs: specs, done: done}

	select {
	case w.jobs <- job:
		// Scheduled; the worker takes it from here.
	default:
		// Queue full. Dropping keeps the write path fast; the entity
		// stays uncached until its first organic read.
		w.log.WithFields(logrus.Fields{
			"component": "querycache",
			"kind":      kind,
			"id":        id,
		}).Warn("warming queue full, job dropped")
		done <- WarmResult{
			Kind:  kind,
			ID:    id,
			State: WarmFailed,
			Err:   fmt.Errorf("warm %s:%s: queue full", kind, id),
		}
	}

	return done
}

// WarmNewArticle schedules warming for a freshly published article.
// The canonical keys (by slug, by id, category listings) arrive
// already built in the specs; slug is logged for traceability.
func (w *Warmer) WarmNewArticle(slug string, id int64, specs []WarmSpec) <-chan WarmResult {
	w.log.WithFields(logrus.Fields{
		"component": "querycache",
		"slug":      slug,
		"id":        id,
	}).Debug("scheduling article warm")
	return w.WarmNewEntity("article", strconv.FormatInt(id, 10), specs)
}

// WarmNewPodcast schedules warming for a freshly published podcast.
func (w *Warmer) WarmNewPodcast(id int64, specs []WarmSpec) <-chan WarmResult {
	return w.WarmNewEntity("podcast", strconv.FormatInt(id, 10), specs)
}

func (w *Warmer) worker() {
	defer w.wg.Done()

	for job := range w.jobs {
		w.run(job)
	}
}

// run executes one job: each spec re-runs its real loader through the
// read-through path. Per-key failures are caught, logged, and
// aggregated; one bad key never stops the rest.
func (w *Warmer) run(job warmJob) {
	var merr error
	warmed := 0

	for _, spec := range job.specs {
		_, err := w.cache.Query(context.Background(), spec.Key, spec.Tier, spec.Loader, spec.Tags...)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("warm %s: %w", spec.Key, err))
			w.log.WithFields(logrus.Fields{
				"component": "querycache",
				"kind":      job.kind,
				"id":        job.id,
				"key":       spec.Key,
			}).WithError(err).Warn("cache warming failed for key")
			continue
		}
		warmed++
	}

	res := WarmResult{
		Kind:   job.kind,
		ID:     job.id,
		State:  WarmSucceeded,
		Warmed: warmed,
		Err:    merr,
	}
	if merr != nil {
		res.State = WarmFailed
	}

	w.log.WithFields(logrus.Fields{
		"component": "querycache",
		"kind":      job.kind,
		"id":        job.id,
		"warmed":    warmed,
		"state":     res.State,
	}).Debug("cache warming finished")

	// done is buffered; a caller that ignored the channel never blocks
	// the worker.
	job.done <- res
}

// Close stops accepting jobs and waits for queued ones to finish.
func (w *Warmer) Close() {
	w.closeOnce.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}
