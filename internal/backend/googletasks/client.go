// Package googletasks implements the service.Service interface on a single
// Google Tasks list.
package googletasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/config"
	"todo/internal/service"
)

const (
	// PageSize is the number of tasks fetched per API page.
	PageSize = 100

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
}

var _ service.Service = (*Client)(nil)

// New creates a new Google Tasks client bound to cfg.GoogleList.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Token source refreshes automatically.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	return newClient(ctx, cfg.GoogleList, opts...)
}

// NewWithEndpoint creates a client with a custom HTTP client and API endpoint (for testing).
func NewWithEndpoint(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	return newClient(ctx, listID, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
}

func newClient(ctx context.Context, listID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	if listID == "" {
		listID = config.DefaultGoogleList
	}
	return &Client{svc: svc, listID: listID}, nil
}

// ListTasks returns every task of the list, completed and hidden ones
// included, in API order. All pages are fetched.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// CreateTask inserts a task at the top of the list.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  draft.Title,
		Status: statusFor(draft.Completed),
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(created), nil
}

// UpdateTask patches title and status. Clearing completion also clears the
// completion timestamp, which the API requires.
func (c *Client) UpdateTask(ctx context.Context, t service.Task) (service.Task, error) {
	patch := &tasks.Task{
		Title:  t.Title,
		Status: statusFor(t.Completed),
	}
	if !t.Completed {
		patch.NullFields = []string{"Completed"}
	}
	updated, err := c.svc.Tasks.Patch(c.listID, t.ID.String(), patch).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(updated), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id service.ID) error {
	if err := c.svc.Tasks.Delete(c.listID, id.String()).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func fromAPI(t *tasks.Task) service.Task {
	return service.Task{
		ID:        service.ID(t.Id),
		Title:     t.Title,
		Completed: t.Status == statusCompleted,
	}
}

func statusFor(completed bool) string {
	if completed {
		return statusCompleted
	}
	return statusNeedsAction
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for timeout
	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out: %w", err)
	}

	// Check for auth errors
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return fmt.Errorf("token expired or revoked (run: todo login): %w", err)
	}

	// Check for not found
	if strings.Contains(errStr, "404") {
		return fmt.Errorf("not found: %w", err)
	}

	return err
}
