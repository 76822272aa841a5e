package pipeline

import (
	"sort"
	"sync"
	"time"
)

// RunStatus is the latest outcome for one station and data kind.
type RunStatus struct {
	RunID      string    `json:"run_id"`
	Station    string    `json:"station"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Label      string    `json:"label,omitempty"`
	Rows       int       `json:"rows"`
	Files      int       `json:"files"`
	Paths      []string  `json:"paths,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Tracker keeps the latest RunStatus per station and kind.
type Tracker struct {
	mu   sync.RWMutex
	last map[string]RunStatus
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{last: map[string]RunStatus{}}
}

// Observe records the outcome of a run, replacing the previous one.
func (t *Tracker) Observe(res Result, err error) {
	st := RunStatus{
		RunID:      res.RunID,
		Station:    res.Station,
		Kind:       string(res.Kind),
		Status:     "success",
		Label:      res.Label,
		Rows:       res.Regularity.Rows,
		Files:      res.Files,
		Paths:      res.Paths,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
	}
	if err != nil {
		st.Status = "error"
		st.Error = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[st.Station+"/"+st.Kind] = st
}

// Runs returns the latest statuses ordered by station then kind.
func (t *Tracker) Runs() []RunStatus {
	t.mu.RLock()
	out := make([]RunStatus, 0, len(t.last))
	for _, st := range t.last {
		out = append(out, st)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Station != out[j].Station {
			return out[i].Station < out[j].Station
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
