// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque task identifier assigned by the remote store.
// Numeric ids are kept in their decimal form. On its own an ID encodes as a
// JSON number only when it is a canonical integer; clients that must echo the
// exact token they received keep it alongside the record.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

// MarshalJSON encodes canonical integer ids as JSON numbers and everything
// else, including "007" and "+5", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("task id is null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid task id: %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) numeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// Task represents a single task item.
type Task struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Draft is the payload for creating a task. It never carries an id.
type Draft struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}
