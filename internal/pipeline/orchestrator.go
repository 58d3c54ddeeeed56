package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docgraph/internal/chunker"
	"github.com/dgallion1/docgraph/internal/config"
	"github.com/dgallion1/docgraph/internal/parser"
	"github.com/dgallion1/docgraph/internal/parsing"
	"github.com/dgallion1/docgraph/internal/pathstore"
)

// Orchestrator manages the document parse pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	ps       *pathstore.Client
	parser   *parsing.Parser
	stats    *BuildStats
	log      *slog.Logger
	cfg      config.Config
	chunkCfg chunker.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewOrchestrator creates the pipeline. ps may be nil, in which case
// documents are built and chunked but not published.
func NewOrchestrator(cfg config.Config, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, max(cfg.MaxQueueSize, 1)),
		ps:    ps,
		parser: &parsing.Parser{
			Logger:  log,
			Sources: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		},
		stats: NewBuildStats(cfg.StatsWindow),
		log:   log,
		cfg:   cfg,
		chunkCfg: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
			MinChunk:     100,
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.parser, o.ps, o.stats, o.log, o.chunkCfg, o.cfg.MaxConcurrentStore)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling build latency stats.
func (o *Orchestrator) Stats() *BuildStats {
	return o.stats
}

// PathstoreClient returns the pathstore client for direct use by API
// handlers, or nil when publishing is disabled.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}
