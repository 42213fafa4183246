package httpapi

import (
	"bytes"
	"encoding/json"
	"sync"

	"todo/internal/service"
)

// wireTask is a task as it appears on the wire. ID keeps the exact JSON
// token the server sent so it can be echoed back unchanged.
type wireTask struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Completed bool            `json:"completed"`
}

func (w wireTask) task() (service.Task, error) {
	var id service.ID
	if err := id.UnmarshalJSON(w.ID); err != nil {
		return service.Task{}, err
	}
	return service.Task{ID: id, Title: w.Title, Completed: w.Completed}, nil
}

// idTokens maps each id seen in a response to the JSON token it arrived as.
type idTokens struct {
	mu     sync.Mutex
	tokens map[service.ID]json.RawMessage
}

func (t *idTokens) remember(id service.ID, raw json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tokens == nil {
		t.tokens = make(map[service.ID]json.RawMessage)
	}
	t.tokens[id] = bytes.Clone(bytes.TrimSpace(raw))
}

func (t *idTokens) forget(id service.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, id)
}

// token returns the recorded token for id, or the id's own encoding when
// the id was never received.
func (t *idTokens) token(id service.ID) (json.RawMessage, error) {
	t.mu.Lock()
	raw, ok := t.tokens[id]
	t.mu.Unlock()
	if ok {
		return raw, nil
	}
	return id.MarshalJSON()
}

// fromWire converts decoded tasks and records their id tokens.
func (c *Client) fromWire(ws ...wireTask) ([]service.Task, error) {
	tasks := make([]service.Task, 0, len(ws))
	for _, w := range ws {
		t, err := w.task()
		if err != nil {
			return nil, &MalformedError{Err: err}
		}
		c.ids.remember(t.ID, w.ID)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// toWire builds the update body, echoing the id in its received form.
func (c *Client) toWire(t service.Task) (wireTask, error) {
	raw, err := c.ids.token(t.ID)
	if err != nil {
		return wireTask{}, err
	}
	return wireTask{ID: raw, Title: t.Title, Completed: t.Completed}, nil
}
