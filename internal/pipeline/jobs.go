package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// JobStatus represents the state of a proofing job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChecking  JobStatus = "checking"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Progress tracks per-line processing progress.
type Progress struct {
	TotalLines   int      `json:"total_lines"`
	LinesChecked int      `json:"lines_checked"`
	SpansFound   int      `json:"spans_found"`
	Errors       []string `json:"errors"`
}

// Result holds the two renderings produced for a completed job. Both come
// from the same annotation sets, one walk per line, so they never diverge.
type Result struct {
	PreviewHTML  string
	Docx         []byte
	DownloadName string
}

// Job tracks the state of a single document proofing run.
type Job struct {
	mu sync.Mutex

	ID       string
	DocID    string
	Filename string
	Title    string
	Language string

	Status JobStatus
	Phase  string

	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	fileData []byte
	errors   []string
	result   *Result
}

// JobSnapshot is a consistent copy of a job's observable state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	DocID     string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title,omitempty"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a copy of the job's observable state. The errors slice
// is always non-nil so it serializes as [].
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Filename:  j.Filename,
		Title:     j.Title,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  j.Progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	snap.Progress.Errors = make([]string, len(j.errors))
	copy(snap.Progress.Errors, j.errors)
	return snap
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus reads the job status under lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records a degraded-output error on the job.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// HasErrors reports whether any phase degraded.
func (j *Job) HasErrors() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors) > 0
}

// IncrLinesChecked atomically increments the processed line count.
func (j *Job) IncrLinesChecked() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.LinesChecked++
	j.UpdatedAt = time.Now()
}

// AddSpans records reconciled spans found on one line.
func (j *Job) AddSpans(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SpansFound += n
	j.UpdatedAt = time.Now()
}

// SetTotalLines records the total line count.
func (j *Job) SetTotalLines(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalLines = n
	j.UpdatedAt = time.Now()
}

// SetTitle records the document title discovered during parsing, unless
// the upload already supplied one.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
}

// SetFileData attaches the raw upload bytes to the job.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult attaches the finished renderings and releases the upload
// bytes, which are no longer needed.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Result returns the finished renderings, or nil while processing.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string. Used
// as the stable document ID, identical for identical uploads.
func ContentHashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
