package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todo/internal/service"
)

const testList = "L1"

// fakeTasksAPI serves the subset of the Google Tasks REST API the client uses.
type fakeTasksAPI struct {
	t          *testing.T
	lastPatch  map[string]any
	deletedIDs []string
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/tasks/v1/lists/" + testList + "/tasks"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && id == "":
		if r.URL.Query().Get("pageToken") == "" {
			w.Write([]byte(`{"items":[{"id":"a","title":"Buy milk","status":"needsAction"}],"nextPageToken":"p2"}`))
			return
		}
		w.Write([]byte(`{"items":[{"id":"b","title":"Buy eggs","status":"completed"}]}`))
	case r.Method == http.MethodPost && id == "":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = "new"
		json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodPatch && id != "":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.lastPatch = body
		body["id"] = id
		json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodDelete && id == "gone":
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	case r.Method == http.MethodDelete && id != "":
		f.deletedIDs = append(f.deletedIDs, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeTasksAPI) {
	t.Helper()
	api := &fakeTasksAPI{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewWithEndpoint(context.Background(), srv.Client(), srv.URL+"/", testList)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, api
}

func TestClient_ListTasksAllPages(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []service.Task{
		{ID: "a", Title: "Buy milk", Completed: false},
		{ID: "b", Title: "Buy eggs", Completed: true},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("task %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestClient_CreateTask(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.CreateTask(context.Background(), service.Draft{Title: "Call mom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (service.Task{ID: "new", Title: "Call mom", Completed: false}) {
		t.Errorf("unexpected task %+v", got)
	}
}

func TestClient_UpdateTaskStatus(t *testing.T) {
	c, api := newTestClient(t)

	got, err := c.UpdateTask(context.Background(), service.Task{ID: "a", Title: "Buy milk", Completed: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Completed {
		t.Errorf("expected completed task, got %+v", got)
	}
	if api.lastPatch["status"] != statusCompleted {
		t.Errorf("expected status %q, got %v", statusCompleted, api.lastPatch["status"])
	}

	got, err = c.UpdateTask(context.Background(), service.Task{ID: "a", Title: "Buy milk", Completed: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Completed {
		t.Errorf("expected open task, got %+v", got)
	}
	completed, present := api.lastPatch["completed"]
	if !present || completed != nil {
		t.Errorf("expected completed to be sent as null, got %v (present=%v)", completed, present)
	}
}

func TestClient_DeleteTask(t *testing.T) {
	c, api := newTestClient(t)

	if err := c.DeleteTask(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.deletedIDs) != 1 || api.deletedIDs[0] != "a" {
		t.Errorf("expected delete of a, got %v", api.deletedIDs)
	}

	err := c.DeleteTask(context.Background(), "gone")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Get ...: context deadline exceeded", "request timed out"},
		{"googleapi: Error 401: Invalid Credentials", "token expired or revoked"},
		{"googleapi: Error 404: Not Found", "not found"},
		{"something else", "something else"},
	}
	for _, tt := range tests {
		err := wrapError(errors.New(tt.in))
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("wrapError(%q) = %q, want it to contain %q", tt.in, err, tt.want)
		}
	}
	if wrapError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
