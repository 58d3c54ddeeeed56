package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docgraph/internal/chunker"
	"github.com/dgallion1/docgraph/internal/descriptor"
	"github.com/dgallion1/docgraph/internal/doctree"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusBuilding   JobStatus = "building"
	StatusChunking   JobStatus = "chunking"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Done reports whether no further transitions will happen.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of a single document parse.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Filename   string    `json:"filename"`
	Descriptor string    `json:"descriptor"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	descriptor *descriptor.Descriptor
	chunkCfg   chunker.Config
	doc        *doctree.Document
	chunks     []doctree.Chunk
	errors     []string
}

// Progress tracks processing progress.
type Progress struct {
	Lines          int      `json:"lines"`
	Nodes          int      `json:"nodes"`
	MaxDepth       int      `json:"max_depth"`
	TotalChunks    int      `json:"total_chunks"`
	NodesPublished int      `json:"nodes_published"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for filename's content, to be parsed with d.
// The job id is a ULID and doubles as the document id until one is set.
func NewJob(filename string, data []byte, d *descriptor.Descriptor) *Job {
	now := time.Now()
	id := generateULID()
	return &Job{
		ID:         id,
		DocID:      id,
		Status:     StatusQueued,
		Phase:      "queued",
		Filename:   filename,
		CreatedAt:  now,
		UpdatedAt:  now,
		fileData:   data,
		descriptor: d,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetLines records how many lines the source produced.
func (j *Job) SetLines(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Lines = n
	j.UpdatedAt = time.Now()
}

// SetDocument records the built document and its chunks.
func (j *Job) SetDocument(doc *doctree.Document, chunks []doctree.Chunk) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.doc = doc
	j.chunks = chunks
	j.Progress.Nodes = doc.Len()
	j.Progress.MaxDepth = doc.MaxDepth()
	j.Progress.TotalChunks = len(chunks)
	j.UpdatedAt = time.Now()
}

// Document returns the built document, or nil before the build finished.
func (j *Job) Document() *doctree.Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.doc
}

// Chunks returns the chunks of the built document.
func (j *Job) Chunks() []doctree.Chunk {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chunks
}

// AddPublished atomically adds to the published node count.
func (j *Job) AddPublished(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesPublished += n
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// DescriptorSpec returns the normalized descriptor the job parses with.
func (j *Job) DescriptorSpec() *descriptor.Descriptor {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.descriptor
}

// SetChunkConfig overrides the worker's default chunking for this job.
func (j *Job) SetChunkConfig(cfg chunker.Config) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chunkCfg = cfg
}

// ChunkConfig returns the per-job chunking override; zero means default.
func (j *Job) ChunkConfig() chunker.Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chunkCfg
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Descriptor  string    `json:"descriptor"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Descriptor:  j.Descriptor,
		ContentHash: j.ContentHash,
		Progress:    progress,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// setContentHash records the hash of the parsed text.
func (j *Job) setContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
