// Package store implements the task store client: an in-memory ordered task
// collection kept consistent with a remote authoritative store.
//
// Every mutation is confirmed by the remote before it is reflected locally.
// A failed operation leaves local state untouched and only raises an error
// notice on the banner.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"todo/internal/logging"
	"todo/internal/notice"
	"todo/internal/service"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithBanner sets the notification banner.
func WithBanner(b *notice.Banner) Option {
	return func(s *Store) {
		if b != nil {
			s.banner = b
		}
	}
}

// Store owns the local task collection, the input text, and the banner.
// It is safe for concurrent use; remote calls are made without holding the lock.
type Store struct {
	svc    service.Service
	log    *log.Logger
	banner *notice.Banner

	mu      sync.Mutex
	tasks   []service.Task
	input   string
	loading bool

	// pending holds the sequence number of the newest in-flight toggle per id.
	pending map[service.ID]uint64
	nextSeq uint64

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates a Store backed by svc with an empty collection.
func New(svc service.Service, opts ...Option) *Store {
	s := &Store{
		svc:     svc,
		log:     logging.Discard(),
		pending: make(map[service.ID]uint64),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.banner == nil {
		s.banner = notice.NewBanner(notice.DefaultTimeout)
	}
	return s
}

// Banner returns the store's notification banner.
func (s *Store) Banner() *notice.Banner {
	return s.banner
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	st := State{
		Tasks:   append([]service.Task(nil), s.tasks...),
		Input:   s.input,
		Loading: s.loading,
	}
	s.mu.Unlock()

	if n, ok := s.banner.Current(); ok {
		st.Notice = &n
	}
	return st
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish() {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	st := s.State()
	for _, fn := range fns {
		fn(st)
	}
}

// SetInput replaces the transient input text.
func (s *Store) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	s.publish()
}

// DismissNotice closes the banner.
func (s *Store) DismissNotice() {
	s.banner.Dismiss()
	s.publish()
}

// Load fetches the full collection and replaces local state wholesale.
// On failure the collection is left empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.publish()

	tasks, err := s.svc.ListTasks(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.tasks = nil
	} else {
		s.tasks = s.dedupe(tasks)
	}
	s.mu.Unlock()

	if err != nil {
		return s.fail(OpLoad, "", err)
	}
	s.log.Debug("tasks loaded", "count", len(tasks))
	s.publish()
	return nil
}

// dedupe keeps the first record for every id.
func (s *Store) dedupe(tasks []service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	seen := make(map[service.ID]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			s.log.Warn("duplicate task id in load response", "task_id", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Submit creates a task from the current input text.
func (s *Store) Submit(ctx context.Context) (service.Task, error) {
	s.mu.Lock()
	title := s.input
	s.mu.Unlock()
	return s.Create(ctx, title)
}

// Create sends a creation request for the trimmed title and appends the
// server's record. Empty titles are rejected without a request.
func (s *Store) Create(ctx context.Context, title string) (service.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return service.Task{}, ErrEmptyTitle
	}

	created, err := s.svc.CreateTask(ctx, service.Draft{Title: title, Completed: false})
	if err != nil {
		return service.Task{}, s.fail(OpCreate, "", err)
	}

	s.mu.Lock()
	if i := indexOf(s.tasks, created.ID); i >= 0 {
		s.log.Warn("created task id already present, replacing", "task_id", created.ID)
		s.tasks[i] = created
	} else {
		s.tasks = append(s.tasks, created)
	}
	s.input = ""
	s.mu.Unlock()

	s.succeed(OpCreate)
	return created, nil
}

// Toggle sends the record with completed inverted and replaces the local
// record with the server response. Unknown ids are a no-op.
//
// If another toggle for the same id starts before this one returns, this
// outcome is dropped and the newer one decides the final state: a stale
// success changes nothing and a stale failure raises no banner. Deletes are
// not sequenced; a record deleted while a toggle is in flight stays gone.
func (s *Store) Toggle(ctx context.Context, id service.ID) (service.Task, error) {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return service.Task{}, ErrUnknownTask
	}
	want := s.tasks[i]
	want.Completed = !want.Completed
	s.nextSeq++
	seq := s.nextSeq
	s.pending[id] = seq
	s.mu.Unlock()

	updated, err := s.svc.UpdateTask(ctx, want)

	s.mu.Lock()
	latest := s.pending[id] == seq
	if latest {
		delete(s.pending, id)
	}
	if err != nil {
		s.mu.Unlock()
		if !latest {
			s.log.Debug("dropping stale update failure", "task_id", id, "err", err)
			return service.Task{}, &OperationError{Op: OpUpdate, ID: id, Err: err}
		}
		return service.Task{}, s.fail(OpUpdate, id, err)
	}
	if !latest {
		s.mu.Unlock()
		s.log.Debug("dropping stale update response", "task_id", id)
		return updated, nil
	}
	// The record may have been deleted while the request was in flight.
	if j := indexOf(s.tasks, id); j >= 0 {
		s.tasks[j] = updated
	}
	s.mu.Unlock()

	s.succeed(OpUpdate)
	return updated, nil
}

// Delete sends a deletion request and removes the record on success.
func (s *Store) Delete(ctx context.Context, id service.ID) error {
	if err := s.svc.DeleteTask(ctx, id); err != nil {
		return s.fail(OpDelete, id, err)
	}

	s.mu.Lock()
	if i := indexOf(s.tasks, id); i >= 0 {
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	}
	s.mu.Unlock()

	s.succeed(OpDelete)
	return nil
}

func (s *Store) succeed(op Operation) {
	if msg := op.SuccessMessage(); msg != "" {
		s.banner.Show(msg, notice.Success)
	}
	s.publish()
}

func (s *Store) fail(op Operation, id service.ID, err error) error {
	opErr := &OperationError{Op: op, ID: id, Err: err}
	if errors.Is(err, context.Canceled) {
		s.log.Debug("operation cancelled", "op", op, "task_id", id)
	} else {
		s.log.Debug("operation failed", "op", op, "task_id", id, "err", err)
	}
	s.banner.Show(op.FailureMessage(), notice.Error)
	s.publish()
	return opErr
}
