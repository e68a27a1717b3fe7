package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the remote scheduled-post API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match a 404 against ErrPostNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrPostNotFound && e.StatusCode == http.StatusNotFound
}

// APIClient talks to the remote scheduled-post API over HTTP.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) FetchAllScheduledPosts(ctx context.Context) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	if err := c.do(ctx, http.MethodGet, "/scheduled-posts", nil, &posts); err != nil {
		return nil, fmt.Errorf("fetching scheduled posts: %w", err)
	}
	for i := range posts {
		posts[i].PostType = normalizePostType(string(posts[i].PostType))
	}
	return posts, nil
}

func (c *APIClient) GetScheduledPost(ctx context.Context, id string) (*ScheduledPost, error) {
	var post ScheduledPost
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &post); err != nil {
		return nil, fmt.Errorf("fetching scheduled post %q: %w", id, err)
	}
	post.PostType = normalizePostType(string(post.PostType))
	return &post, nil
}

func (c *APIClient) CreateScheduledPost(ctx context.Context, post ScheduledPost) (*ScheduledPost, error) {
	var created ScheduledPost
	if err := c.do(ctx, http.MethodPost, "/scheduled-posts", post, &created); err != nil {
		return nil, fmt.Errorf("creating scheduled post: %w", err)
	}
	return &created, nil
}

func (c *APIClient) UpdateScheduledPost(ctx context.Context, post ScheduledPost) error {
	if err := c.do(ctx, http.MethodPut, postPath(post.ID), post, nil); err != nil {
		return fmt.Errorf("updating scheduled post %q: %w", post.ID, err)
	}
	return nil
}

func (c *APIClient) DeleteScheduledPost(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, postPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting scheduled post %q: %w", id, err)
	}
	return nil
}

func postPath(id string) string {
	return "/scheduled-posts/" + url.PathEscape(id)
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage pulls {"message": "..."} or {"error": "..."} out of an error
// body, falling back to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
