package main

import (
	"context"
	"errors"
	"log"
	"net/url"

	"golang.org/x/sync/singleflight"
)

const (
	deleteWarningMessage = "You need to be in Admin Mode to delete scheduled posts."
	deleteFailedMessage  = "Could not delete the scheduled post."

	createRoute = "/create"
)

var errNotAdmin = errors.New("admin mode required")

// Board is one viewer's copy of the scheduled-post list plus the modal state
// layered over it. At most one of Preview and PendingDelete is set.
type Board struct {
	api      PostAPI
	admin    bool
	inflight *singleflight.Group

	Loading       bool
	Posts         []ScheduledPost
	Preview       *ScheduledPost
	PendingDelete *ScheduledPost
	Warning       string
}

func NewBoard(api PostAPI, admin bool, inflight *singleflight.Group) *Board {
	return &Board{api: api, admin: admin, inflight: inflight, Loading: true}
}

func (b *Board) IsAdmin() bool {
	return b.admin
}

// Load replaces the list with the API's. A failed fetch is logged and leaves
// the board empty.
func (b *Board) Load(ctx context.Context) error {
	defer func() { b.Loading = false }()

	posts, err := b.api.FetchAllScheduledPosts(ctx)
	if err != nil {
		log.Printf("Failed to fetch scheduled posts: %v", err)
		b.Posts = nil
		return err
	}
	b.Posts = posts
	return nil
}

func (b *Board) find(id string) *ScheduledPost {
	for i := range b.Posts {
		if b.Posts[i].ID == id {
			return &b.Posts[i]
		}
	}
	return nil
}

// View opens the preview modal for id. Viewing needs no admin mode.
func (b *Board) View(id string) bool {
	post := b.find(id)
	if post == nil {
		return false
	}
	b.CancelDelete()
	b.Preview = post
	return true
}

func (b *Board) ClosePreview() {
	b.Preview = nil
}

// RequestDelete opens the delete confirmation for id. Outside admin mode it
// only sets the warning.
func (b *Board) RequestDelete(id string) bool {
	if !b.admin {
		b.Warning = deleteWarningMessage
		return false
	}
	post := b.find(id)
	if post == nil {
		return false
	}
	b.ClosePreview()
	b.PendingDelete = post
	return true
}

func (b *Board) CancelDelete() {
	b.PendingDelete = nil
}

// ConfirmDelete deletes the pending post remotely and drops it from the list
// only once that succeeds. On failure the list and the confirmation stay as
// they were. Concurrent deletes of one id share a single remote call, which
// outlives the cancellation of whichever request started it.
func (b *Board) ConfirmDelete(ctx context.Context) error {
	if !b.admin {
		return errNotAdmin
	}
	if b.PendingDelete == nil {
		return ErrPostNotFound
	}
	id := b.PendingDelete.ID

	_, err, _ := b.inflight.Do(id, func() (any, error) {
		return nil, b.api.DeleteScheduledPost(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		log.Printf("Delete failed: %v", err)
		return err
	}

	kept := b.Posts[:0:0]
	for _, p := range b.Posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	b.Posts = kept
	b.PendingDelete = nil
	return nil
}

// EditLink is the edit route for id, or "" outside admin mode.
func (b *Board) EditLink(id string) string {
	if !b.admin {
		return ""
	}
	return createRoute + "/" + url.PathEscape(id)
}

// CreateLink is the creation route, or "" outside admin mode.
func (b *Board) CreateLink() string {
	if !b.admin {
		return ""
	}
	return createRoute
}
