package store_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"todo/internal/notice"
	"todo/internal/service"
	"todo/internal/store"
	"todo/internal/testutil"
)

var errNetwork = errors.New("connection refused")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newStore returns a store over svc with a controllable banner clock.
func newStore(svc service.Service) (*store.Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	banner := notice.NewBanner(notice.DefaultTimeout, notice.WithClock(clock.Now))
	return store.New(svc, store.WithBanner(banner)), clock
}

// loadedStore seeds svc with titles, creates a store and loads it.
func loadedStore(t *testing.T, svc *testutil.FakeService, titles ...string) (*store.Store, *fakeClock) {
	t.Helper()
	for _, title := range titles {
		svc.AddTask(title, false)
	}
	s, clock := newStore(svc)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, clock
}

func assertNotice(t *testing.T, st store.State, message string, severity notice.Severity) {
	t.Helper()
	if st.Notice == nil {
		t.Fatalf("expected notice %q, got none", message)
	}
	if st.Notice.Message != message || st.Notice.Severity != severity {
		t.Errorf("expected notice %q (%v), got %q (%v)", message, severity, st.Notice.Message, st.Notice.Severity)
	}
}

func assertOperationError(t *testing.T, err error, op store.Operation) {
	t.Helper()
	if !errors.Is(err, store.ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
	var opErr *store.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *OperationError, got %T", err)
	}
	if opErr.Op != op {
		t.Errorf("expected op %q, got %q", op, opErr.Op)
	}
	if !errors.Is(err, errNetwork) {
		t.Errorf("expected cause to unwrap to %v, got %v", errNetwork, err)
	}
}

func TestLoad_ReplacesCollectionInServerOrder(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk", "Buy eggs", "Call mom")

	st := s.State()
	if !reflect.DeepEqual(st.Tasks, svc.Tasks()) {
		t.Errorf("expected %+v, got %+v", svc.Tasks(), st.Tasks)
	}
	if st.Loading {
		t.Error("expected loading to be false after load")
	}
	if st.Notice != nil {
		t.Errorf("load success should not raise a notice, got %+v", st.Notice)
	}
}

func TestLoad_EmptyCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc)

	if !s.State().Empty() {
		t.Error("expected empty state after loading []")
	}
}

func TestLoad_FailureLeavesEmptyCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")

	svc.ListTasksErr = errNetwork
	err := s.Load(context.Background())
	assertOperationError(t, err, store.OpLoad)

	st := s.State()
	if len(st.Tasks) != 0 {
		t.Errorf("expected empty collection after failed load, got %+v", st.Tasks)
	}
	assertNotice(t, st, "Failed to load tasks", notice.Error)
	if svc.Calls("ListTasks") != 2 {
		t.Errorf("expected no automatic retry, got %d calls", svc.Calls("ListTasks"))
	}
}

func TestLoad_DropsDuplicateIDs(t *testing.T) {
	dup := &dupService{FakeService: testutil.NewFakeService()}
	s, _ := newStore(dup)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	st := s.State()
	if len(st.Tasks) != 2 {
		t.Fatalf("expected 2 unique tasks, got %+v", st.Tasks)
	}
	if st.Tasks[0].Title != "first" {
		t.Errorf("expected first occurrence to win, got %+v", st.Tasks[0])
	}
}

type dupService struct {
	*testutil.FakeService
}

func (d *dupService) ListTasks(ctx context.Context) ([]service.Task, error) {
	return []service.Task{
		{ID: "1", Title: "first"},
		{ID: "2", Title: "other"},
		{ID: "1", Title: "second"},
	}, nil
}

func TestCreate_AppendsServerRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc)

	s.SetInput("  Buy milk  ")
	created, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := service.Task{ID: "1", Title: "Buy milk", Completed: false}
	if created != want {
		t.Errorf("expected %+v, got %+v", want, created)
	}

	st := s.State()
	if !reflect.DeepEqual(st.Tasks, []service.Task{want}) {
		t.Errorf("expected collection [%+v], got %+v", want, st.Tasks)
	}
	if st.Input != "" {
		t.Errorf("expected input cleared, got %q", st.Input)
	}
	assertNotice(t, st, "Task added successfully!", notice.Success)
}

func TestCreate_LengthGrowsByOne(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "a", "b")

	for i, title := range []string{"c", " d", "e\t"} {
		before := len(s.State().Tasks)
		created, err := s.Create(context.Background(), title)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		st := s.State()
		if len(st.Tasks) != before+1 {
			t.Errorf("expected length %d, got %d", before+1, len(st.Tasks))
		}
		last := st.Tasks[len(st.Tasks)-1]
		if last != created {
			t.Errorf("expected new record last, got %+v", last)
		}
	}
	if got := s.State().Tasks[3].Title; got != "d" {
		t.Errorf("expected trimmed title %q, got %q", "d", got)
	}
}

func TestCreate_EmptyTitleSendsNothing(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", title), func(t *testing.T) {
			svc := testutil.NewFakeService()
			s, _ := loadedStore(t, svc, "Buy milk")
			before := s.State()

			_, err := s.Create(context.Background(), title)
			if !errors.Is(err, store.ErrEmptyTitle) {
				t.Fatalf("expected ErrEmptyTitle, got %v", err)
			}
			if svc.Calls("CreateTask") != 0 {
				t.Errorf("expected no request, got %d", svc.Calls("CreateTask"))
			}
			if after := s.State(); !reflect.DeepEqual(before, after) {
				t.Errorf("expected state unchanged, got %+v", after)
			}
		})
	}
}

func TestCreate_FailurePreservesInput(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")
	svc.CreateTaskErr = errNetwork

	s.SetInput("Buy eggs")
	_, err := s.Submit(context.Background())
	assertOperationError(t, err, store.OpCreate)

	st := s.State()
	if len(st.Tasks) != 1 {
		t.Errorf("expected collection unchanged, got %+v", st.Tasks)
	}
	if st.Input != "Buy eggs" {
		t.Errorf("expected input preserved, got %q", st.Input)
	}
	assertNotice(t, st, "Failed to add task", notice.Error)
}

func TestToggle_AppliesServerRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")

	updated, err := s.Toggle(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := service.Task{ID: "1", Title: "Buy milk", Completed: true}
	if updated != want {
		t.Errorf("expected %+v, got %+v", want, updated)
	}

	st := s.State()
	if st.Tasks[0] != want {
		t.Errorf("expected local record %+v, got %+v", want, st.Tasks[0])
	}
	assertNotice(t, st, "Task updated!", notice.Success)

	// Symmetric: the same request shape flips it back.
	if _, err := s.Toggle(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State().Tasks[0].Completed {
		t.Error("expected second toggle to clear completed")
	}
}

func TestToggle_ServerResponseIsAuthoritative(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")
	svc.UpdateOverride = func(t service.Task) service.Task {
		t.Title = "Buy oat milk"
		return t
	}

	if _, err := s.Toggle(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := s.State().Tasks[0]
	want := service.Task{ID: "1", Title: "Buy oat milk", Completed: true}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestToggle_FailureLeavesRecordUnchanged(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")
	before := s.State().Tasks
	svc.UpdateTaskErr = errNetwork

	_, err := s.Toggle(context.Background(), "1")
	assertOperationError(t, err, store.OpUpdate)

	st := s.State()
	if !reflect.DeepEqual(st.Tasks, before) {
		t.Errorf("expected %+v, got %+v", before, st.Tasks)
	}
	assertNotice(t, st, "Failed to update task", notice.Error)
}

func TestToggle_UnknownIDIsNoOp(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")

	_, err := s.Toggle(context.Background(), "99")
	if !errors.Is(err, store.ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if svc.Calls("UpdateTask") != 0 {
		t.Errorf("expected no request, got %d", svc.Calls("UpdateTask"))
	}
	if s.State().Notice != nil {
		t.Error("expected no notice for unknown id")
	}
}

func TestToggle_StaleResponseDropped(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")

	var arrivals, responses int32
	started := make(chan struct{})
	release := make(chan struct{})
	svc.BeforeUpdate = func(service.Task) {
		if atomic.AddInt32(&arrivals, 1) == 1 {
			close(started)
			<-release
		}
	}
	svc.UpdateOverride = func(t service.Task) service.Task {
		t.Title = fmt.Sprintf("response-%d", atomic.AddInt32(&responses, 1))
		return t
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Toggle(context.Background(), "1")
		done <- err
	}()
	<-started

	// The second toggle starts after the first and returns before it.
	if _, err := s.Toggle(context.Background(), "1"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	if got := s.State().Tasks[0].Title; got != "response-1" {
		t.Errorf("expected newest request's response to win, got %q", got)
	}
}

// slowEcho answers updates with the request body once released.
type slowEcho struct {
	*testutil.FakeService
	started chan struct{}
	release chan struct{}
}

func (s *slowEcho) UpdateTask(ctx context.Context, t service.Task) (service.Task, error) {
	close(s.started)
	<-s.release
	return t, nil
}

func TestToggle_DeletedWhileInFlightIsNotReinserted(t *testing.T) {
	svc := &slowEcho{
		FakeService: testutil.NewFakeService(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	svc.AddTask("Buy milk", false)
	s, _ := newStore(svc)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Toggle(context.Background(), "1")
		done <- err
	}()
	<-svc.started

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(svc.release)
	if err := <-done; err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if n := len(s.State().Tasks); n != 0 {
		t.Errorf("expected deleted record to stay gone, got %d tasks", n)
	}
}

// failFirstUpdate holds the first update until released and then fails it.
// Later updates go straight to the fake.
type failFirstUpdate struct {
	*testutil.FakeService
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (f *failFirstUpdate) UpdateTask(ctx context.Context, t service.Task) (service.Task, error) {
	if atomic.AddInt32(&f.calls, 1) == 1 {
		close(f.started)
		<-f.release
		return service.Task{}, errNetwork
	}
	return f.FakeService.UpdateTask(ctx, t)
}

func TestToggle_StaleFailureRaisesNoBanner(t *testing.T) {
	svc := &failFirstUpdate{
		FakeService: testutil.NewFakeService(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	svc.AddTask("Buy milk", false)
	s, _ := newStore(svc)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Toggle(context.Background(), "1")
		done <- err
	}()
	<-svc.started

	if _, err := s.Toggle(context.Background(), "1"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	close(svc.release)
	assertOperationError(t, <-done, store.OpUpdate)

	st := s.State()
	if !st.Tasks[0].Completed {
		t.Errorf("expected newer toggle to decide the state, got %+v", st.Tasks[0])
	}
	assertNotice(t, st, "Task updated!", notice.Success)
}

func TestDelete_RemovesRecord(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk", "Buy eggs")

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := s.State()
	if len(st.Tasks) != 1 {
		t.Fatalf("expected length 1, got %d", len(st.Tasks))
	}
	if _, ok := st.Find("1"); ok {
		t.Error("expected id 1 to be absent")
	}
	assertNotice(t, st, "Task deleted!", notice.Success)
}

func TestDelete_FailureKeepsRecordAndAutoDismisses(t *testing.T) {
	svc := testutil.NewFakeService()
	s, clock := loadedStore(t, svc)
	if _, err := s.Create(context.Background(), "Buy milk"); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.DeleteTaskErr = errNetwork

	err := s.Delete(context.Background(), "1")
	assertOperationError(t, err, store.OpDelete)

	st := s.State()
	if _, ok := st.Find("1"); !ok {
		t.Fatal("expected record 1 to remain")
	}
	assertNotice(t, st, "Failed to delete task", notice.Error)

	clock.Advance(3000 * time.Millisecond)
	if st := s.State(); st.Notice != nil {
		t.Errorf("expected banner dismissed after 3000ms, got %+v", st.Notice)
	}
}

func TestDelete_RepeatedDeleteAsksRemote(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc, "Buy milk")

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	err := s.Delete(context.Background(), "1")
	if svc.Calls("DeleteTask") != 2 {
		t.Errorf("expected second request to be sent, got %d calls", svc.Calls("DeleteTask"))
	}
	// The fake reports not found; the store surfaces whatever the remote says.
	if !errors.Is(err, testutil.ErrNotFound) {
		t.Errorf("expected remote error, got %v", err)
	}
}

func TestDismissNotice(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := loadedStore(t, svc)
	if _, err := s.Create(context.Background(), "Buy milk"); err != nil {
		t.Fatalf("create: %v", err)
	}
	s.DismissNotice()
	if s.State().Notice != nil {
		t.Error("expected notice dismissed")
	}
}

func TestSubscribe(t *testing.T) {
	svc := testutil.NewFakeService()
	s, _ := newStore(svc)

	var mu sync.Mutex
	var seen []store.State
	cancel := s.Subscribe(func(st store.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.Create(context.Background(), "Buy milk"); err != nil {
		t.Fatalf("create: %v", err)
	}

	mu.Lock()
	if len(seen) < 3 {
		t.Fatalf("expected at least 3 snapshots, got %d", len(seen))
	}
	if !seen[0].Loading {
		t.Error("expected first snapshot to report loading")
	}
	last := seen[len(seen)-1]
	if len(last.Tasks) != 1 || last.Tasks[0].Title != "Buy milk" {
		t.Errorf("expected last snapshot to contain the new task, got %+v", last.Tasks)
	}
	count := len(seen)
	mu.Unlock()

	cancel()
	s.SetInput("ignored")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != count {
		t.Errorf("expected no snapshots after cancel, got %d more", len(seen)-count)
	}
}

func TestState_CompletedCount(t *testing.T) {
	st := store.State{Tasks: []service.Task{
		{ID: "1", Completed: true},
		{ID: "2"},
		{ID: "3", Completed: true},
	}}
	if got := st.CompletedCount(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
