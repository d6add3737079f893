package job

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localcortex/lattice/internal/errkit"
)

// Manager owns every job record under dir/jobs/<id>.json. It keeps an
// in-memory cache guarded by a mutex and persists each mutation with an
// atomic write-then-rename, the same pattern internal/store's catalog and
// internal/graphkb's storage use for their own on-disk state.
type Manager struct {
	dir string

	mu   sync.Mutex
	jobs map[string]Job
}

// NewManager roots job files at <dir>/jobs and loads any already on disk
// (e.g. from a prior process that crashed mid-run — those jobs keep
// whatever status they were last updated to; nothing resumes them
// automatically).
func NewManager(dir string) (*Manager, error) {
	jobsDir := filepath.Join(dir, "jobs")
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, errkit.Wrap(errkit.Fatal, "create jobs directory", err)
	}
	m := &Manager{dir: jobsDir, jobs: map[string]Job{}}
	if err := m.loadAll(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadAll() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return errkit.Wrap(errkit.Fatal, "read jobs directory", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(m.dir, e.Name()))
		if err != nil {
			continue
		}
		var j Job
		if err := json.Unmarshal(raw, &j); err != nil {
			continue
		}
		m.jobs[j.ID] = j
	}
	return nil
}

// CreateJob starts a new job in StatusPending and persists it.
func (m *Manager) CreateJob(typ Type, storeID, details, message string) (Job, error) {
	now := time.Now().UTC()
	j := Job{
		ID:        uuid.NewString(),
		Type:      typ,
		StoreID:   storeID,
		Status:    StatusPending,
		Message:   message,
		Details:   details,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persist(j); err != nil {
		return Job{}, err
	}
	m.jobs[j.ID] = j
	return j, nil
}

// GetJob returns a single job by id.
func (m *Manager) GetJob(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, errkit.NotFoundf("job %s not found", id)
	}
	return j, nil
}

// ListJobs returns every job, optionally filtered to a single status, newest
// first.
func (m *Manager) ListJobs(status Status) []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// ListActiveJobs returns every pending or running job.
func (m *Manager) ListActiveJobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Job
	for _, j := range m.jobs {
		if j.Status == StatusPending || j.Status == StatusRunning {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// Update applies a partial update to a job. A nil status leaves the job's
// status untouched (a pure progress/message update), and so does a status
// equal to the current one; any other status is validated against the
// monotonic transition guard and rejected with a Validation error if the
// job has already reached a terminal state or the status would move back
// to an earlier state.
func (m *Manager) Update(id string, status *Status, message *string, percent *int, errMsg *string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return Job{}, errkit.NotFoundf("job %s not found", id)
	}

	if status != nil && *status != j.Status {
		if !validTransition(j.Status, *status) {
			return Job{}, errkit.Validationf("invalid job transition %s -> %s", j.Status, *status)
		}
		j.Status = *status
	}
	if message != nil {
		j.Message = *message
	}
	if percent != nil {
		j.Percent = *percent
	}
	if errMsg != nil {
		j.Error = *errMsg
	}
	j.UpdatedAt = time.Now().UTC()

	if err := m.persist(j); err != nil {
		return Job{}, err
	}
	m.jobs[id] = j
	return j, nil
}

// CancelJob transitions a pending or running job to cancelled. It's a thin
// wrapper over Update so the worker polling for cancellation and the
// caller requesting it go through the same validated path.
func (m *Manager) CancelJob(id string) (Job, error) {
	cancelled := StatusCancelled
	return m.Update(id, &cancelled, nil, nil, nil)
}

func (m *Manager) persist(j Job) error {
	raw, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errkit.Wrap(errkit.Fatal, "marshal job", err)
	}
	final := filepath.Join(m.dir, j.ID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errkit.Wrap(errkit.Fatal, "write job", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errkit.Wrap(errkit.Fatal, "rename job", err)
	}
	return nil
}
