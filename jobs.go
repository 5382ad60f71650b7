package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bodul/autocross/internal/crossword"
	"github.com/bodul/autocross/internal/generator"

	"github.com/google/uuid"
)

type jobStatus string

const (
	jobRunning   jobStatus = "running"
	jobSucceeded jobStatus = "succeeded"
	jobFailed    jobStatus = "failed"
)

// progressEvent is the wire form of a generator transition.
type progressEvent struct {
	State       string `json:"state"`
	Attempt     int    `json:"attempt,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
	Terms       int    `json:"terms,omitempty"`
	Error       string `json:"error,omitempty"`
}

func progressFrom(e generator.Event) progressEvent {
	p := progressEvent{
		State:       e.State.String(),
		Attempt:     e.Attempt,
		MaxAttempts: e.MaxAttempts,
		Terms:       e.Terms,
	}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}
	return p
}

// job is one asynchronous generation.
type job struct {
	mu      sync.Mutex
	id      string
	status  jobStatus
	events  []progressEvent
	result  *crossword.Result
	errMsg  string
	kind    string
	created time.Time
	ended   time.Time
	cancel  context.CancelFunc
}

// jobView is the JSON snapshot of a job.
type jobView struct {
	ID        string            `json:"id"`
	Status    jobStatus         `json:"status"`
	Events    []progressEvent   `json:"events"`
	Result    *crossword.Result `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (j *job) view() jobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return jobView{
		ID:        j.id,
		Status:    j.status,
		Events:    append([]progressEvent{}, j.events...),
		Result:    j.result,
		Error:     j.errMsg,
		ErrorKind: j.kind,
		CreatedAt: j.created,
	}
}

// jobs tracks running and recently finished generations and fans their
// progress out over SSE.
type jobs struct {
	mu   sync.RWMutex
	byID map[string]*job
	sse  *Broadcaster
	ttl  time.Duration
	now  func() time.Time
}

func newJobs(sse *Broadcaster, ttl time.Duration) *jobs {
	return &jobs{
		byID: make(map[string]*job),
		sse:  sse,
		ttl:  ttl,
		now:  time.Now,
	}
}

func (js *jobs) get(id string) *job {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.byID[id]
}

// start runs fn in the background under ctx. fn receives the publish hook
// to pass to the generator.
func (js *jobs) start(ctx context.Context, fn func(ctx context.Context, publish func(generator.Event)) (crossword.Result, error)) *job {
	js.prune()

	ctx, cancel := context.WithCancel(ctx)
	j := &job{
		id:      uuid.NewString(),
		status:  jobRunning,
		events:  []progressEvent{},
		created: js.now(),
		cancel:  cancel,
	}
	js.mu.Lock()
	js.byID[j.id] = j
	js.mu.Unlock()

	go func() {
		defer cancel()
		res, err := fn(ctx, func(e generator.Event) { js.publish(j, progressFrom(e)) })
		js.finish(j, res, err)
	}()
	return j
}

func (js *jobs) publish(j *job, p progressEvent) {
	data, _ := json.Marshal(p)
	j.mu.Lock()
	j.events = append(j.events, p)
	js.sse.Broadcast(j.id, string(data))
	j.mu.Unlock()
}

func (js *jobs) finish(j *job, res crossword.Result, err error) {
	j.mu.Lock()
	j.ended = js.now()
	if err != nil {
		j.status = jobFailed
		j.errMsg = err.Error()
		j.kind = errorKind(err)
	} else {
		j.status = jobSucceeded
		j.result = &res
	}
	final := map[string]any{"state": "done", "status": j.status}
	if err != nil {
		final["error"] = j.errMsg
		final["error_kind"] = j.kind
	}
	data, _ := json.Marshal(final)
	js.sse.Finish(j.id, string(data))
	j.mu.Unlock()
}

// subscribe registers an SSE client for j and returns it with the events
// published so far. The client is nil when the job has already finished.
func (js *jobs) subscribe(j *job) (*client, []string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	backlog := make([]string, 0, len(j.events)+1)
	for _, e := range j.events {
		data, _ := json.Marshal(e)
		backlog = append(backlog, string(data))
	}
	if j.status != jobRunning {
		final := map[string]any{"state": "done", "status": j.status}
		if j.errMsg != "" {
			final["error"] = j.errMsg
			final["error_kind"] = j.kind
		}
		data, _ := json.Marshal(final)
		return nil, append(backlog, string(data))
	}
	return js.sse.Register(j.id), backlog
}

// prune forgets jobs finished more than ttl ago.
func (js *jobs) prune() {
	cutoff := js.now().Add(-js.ttl)
	js.mu.Lock()
	defer js.mu.Unlock()
	for id, j := range js.byID {
		j.mu.Lock()
		stale := j.status != jobRunning && j.ended.Before(cutoff)
		j.mu.Unlock()
		if stale {
			delete(js.byID, id)
		}
	}
}

// cancelAll stops every running job.
func (js *jobs) cancelAll() {
	js.mu.RLock()
	defer js.mu.RUnlock()
	for _, j := range js.byID {
		j.cancel()
	}
}

// errorKind names the failure class a client can act on.
func errorKind(err error) string {
	var ex *generator.ExhaustedError
	switch {
	case errors.Is(err, generator.ErrExtraction):
		return "extraction"
	case errors.As(err, &ex):
		return "exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
