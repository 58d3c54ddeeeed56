package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docgraph/internal/chunker"
	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/doctree"
	"github.com/dgallion1/docgraph/internal/graph"
	"github.com/dgallion1/docgraph/internal/parser"
	"github.com/dgallion1/docgraph/internal/parsing"
	"github.com/dgallion1/docgraph/internal/pathstore"
)

// Worker processes a single parse job.
type Worker struct {
	parser    *parsing.Parser
	pathstore *pathstore.Client // nil disables publishing
	stats     *BuildStats
	log       *slog.Logger
	chunkCfg  chunker.Config

	maxConcurrentStore int
	backoff            func(attempt int) time.Duration
}

func NewWorker(p *parsing.Parser, ps *pathstore.Client, stats *BuildStats, log *slog.Logger, chunkCfg chunker.Config, maxStore int) *Worker {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Worker{
		parser:             p,
		pathstore:          ps,
		stats:              stats,
		log:                log,
		chunkCfg:           chunkCfg,
		maxConcurrentStore: maxStore,
		backoff:            Backoff,
	}
}

// Process runs the full parse pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	d := job.DescriptorSpec()
	if d == nil {
		job.AddError("no descriptor")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 1: Extract lines.
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	src, err := parser.ForFile(job.Filename, w.parser.Sources)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	lines, err := src.Lines(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()
	job.SetLines(len(lines))

	// Phase 2: Build the hierarchy.
	job.SetStatus(StatusBuilding, "building")
	doc, err := w.parser.Lines(slices.Values(lines), d)
	if err != nil {
		var malformed *descriptor.MalformedInlineDataError
		if errors.As(err, &malformed) {
			log.Warn("malformed inline data", "text", malformed.Text)
		} else {
			log.Error("build failed", "error", err)
		}
		job.AddError(fmt.Sprintf("build: %s", err))
		job.SetStatus(StatusFailed, "building")
		return
	}
	w.stats.Record(time.Since(start), doc.Len())
	job.setContentHash(ContentHashHex([]byte(strings.Join(doc.Text(true), "\n"))))
	log.Info("built document", "lines", len(lines), "nodes", doc.Len(), "max_depth", doc.MaxDepth())

	// Phase 3: Chunk.
	job.SetStatus(StatusChunking, "chunking")
	cfg := job.ChunkConfig()
	if cfg == (chunker.Config{}) {
		cfg = w.chunkCfg
	}
	chunks := chunker.ChunkDocument(doc, cfg)
	job.SetDocument(doc, chunks)
	log.Info("chunked document", "chunks", len(chunks))

	if w.pathstore == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 4: Publish nodes, their containment links and the summary.
	job.SetStatus(StatusPublishing, "publishing")
	failed := w.publish(ctx, log, job, doc, len(chunks))
	snap := job.Snapshot()
	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case snap.Progress.NodesPublished > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "publishing")
	}
}

// nodeValue is what pathstore keeps for one tree node.
type nodeValue struct {
	Key graph.Key `json:"key"`
	*graph.Attrs
}

// publish writes every node at its hierarchical id and returns the number
// of failed writes.
func (w *Worker) publish(ctx context.Context, log *slog.Logger, job *Job, doc *doctree.Document, chunkCount int) int {
	source := "docgraph:" + job.DocID
	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	fail := func(what string, err error) {
		log.Error("publish failed", "target", what, "error", err)
		job.AddError(fmt.Sprintf("publish %s: %s", what, err))
		mu.Lock()
		failed++
		mu.Unlock()
	}

	sem := make(chan struct{}, w.maxConcurrentStore)
	for key, attrs := range doc.Traverse() {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			nodeKey := pathstore.NodeKey(job.DocID, attrs.ID)
			err := retry(ctx, w.backoff, func() error {
				return w.pathstore.PutNode(ctx, nodeKey, pathstore.NodeRequest{
					Value:      nodeValue{Key: key, Attrs: attrs},
					MemoryType: "semantic",
					Salience:   0.5,
					Source:     source,
				})
			})
			if err != nil {
				fail(string(key), err)
				return
			}
			job.AddPublished(1)

			for _, parent := range doc.Predecessors(key) {
				pa, _ := doc.Node(parent)
				err := retry(ctx, w.backoff, func() error {
					return w.pathstore.PutLink(ctx, pathstore.LinkRequest{
						From:    pathstore.NodeKey(job.DocID, pa.ID),
						To:      nodeKey,
						Weight:  1,
						Summary: "contains",
					})
				})
				if err != nil {
					fail(string(parent)+" -> "+string(key), err)
				}
			}
		}()
	}
	wg.Wait()

	meta := map[string]any{
		"doc_id":       job.DocID,
		"filename":     job.Filename,
		"descriptor":   job.Descriptor,
		"name":         doc.Name(),
		"root":         doc.Root(),
		"nodes":        doc.Len(),
		"max_depth":    doc.MaxDepth(),
		"total_chunks": chunkCount,
		"content_hash": job.Snapshot().ContentHash,
		"created_at":   job.CreatedAt.Format(time.RFC3339),
	}
	err := retry(ctx, w.backoff, func() error {
		return w.pathstore.PutNode(ctx, pathstore.MetaKey(job.DocID), pathstore.NodeRequest{
			Value:      meta,
			MemoryType: "metacognitive",
			Salience:   0.5,
			Source:     source,
		})
	})
	if err != nil {
		fail("meta", err)
	}

	log.Info("publish complete", "nodes", doc.Len(), "failed", failed)
	return failed
}
