package main

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

func (c *Console) newBoard(r *http.Request) *Board {
	return NewBoard(c.api, c.gate.IsElevated(r), &c.deletes)
}

func (c *Console) render(w http.ResponseWriter, page, name string, data any) {
	t, ok := c.templates[page]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("rendering %s: %v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// pageData carries what base.html needs: admin state, the prompt, and any
// pending flash messages (consumed here).
func (c *Console) pageData(w http.ResponseWriter, r *http.Request, title string) map[string]any {
	s := c.uiSession(r)
	prompt := loadPrompt(s)
	flashes := s.Flashes()
	if len(flashes) > 0 {
		c.saveUI(w, r, s)
	}

	return map[string]any{
		"Title":     title,
		"IsAdmin":   c.gate.IsElevated(r),
		"Prompt":    prompt,
		"Flashes":   flashes,
		"CSRFToken": ensureCSRFToken(w, r),
	}
}

// Home renders the page shell. The board itself loads from /board once the
// page is up, with the loading indicator shown until then.
func (c *Console) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	boardQuery := url.Values{}
	for _, key := range []string{"view", "delete"} {
		if v := r.URL.Query().Get(key); v != "" {
			boardQuery.Set(key, v)
		}
	}
	boardURL := "/board"
	if len(boardQuery) > 0 {
		boardURL += "?" + boardQuery.Encode()
	}

	data := c.pageData(w, r, "Scheduled posts")
	data["BoardURL"] = boardURL

	c.render(w, "home.html", "base", data)
}

// BoardFragment renders the post list with whichever modal the query asks for.
func (c *Console) BoardFragment(w http.ResponseWriter, r *http.Request) {
	board := c.newBoard(r)
	board.Load(r.Context())

	q := r.URL.Query()
	if id := q.Get("view"); id != "" {
		board.View(id)
	}
	if id := q.Get("delete"); id != "" {
		board.RequestDelete(id)
	}

	data := map[string]any{
		"Board":     board,
		"CSRFToken": ensureCSRFToken(w, r),
	}

	c.render(w, "board.html", "board", data)
}

func (c *Console) DeletePost(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	board := c.newBoard(r)

	if !board.IsAdmin() {
		board.RequestDelete(id)
		c.flash(w, r, board.Warning)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := board.Load(r.Context()); err != nil {
		c.flash(w, r, deleteFailedMessage)
		http.Redirect(w, r, "/?delete="+url.QueryEscape(id), http.StatusSeeOther)
		return
	}
	if !board.RequestDelete(id) {
		http.NotFound(w, r)
		return
	}

	if err := board.ConfirmDelete(r.Context()); err != nil {
		c.flash(w, r, deleteFailedMessage)
		http.Redirect(w, r, "/?delete="+url.QueryEscape(id), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var (
	errMissingFields      = errors.New("message and publish time are required")
	errInvalidPublishTime = errors.New("invalid publish time")
)

func (c *Console) postFromForm(r *http.Request) (ScheduledPost, error) {
	post := ScheduledPost{
		PostType: normalizePostType(r.FormValue("post_type")),
		Message:  strings.TrimSpace(r.FormValue("message")),
	}

	for _, line := range strings.Split(r.FormValue("images"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			post.Images = append(post.Images, line)
		}
	}

	when := r.FormValue("schedule_publish_time")
	if post.Message == "" || when == "" {
		return post, errMissingFields
	}

	t, err := time.ParseInLocation(inputTimeLayout, when, c.loc)
	if err != nil {
		return post, errInvalidPublishTime
	}
	post.SchedulePublishTime = t

	return post, nil
}

func (c *Console) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		data := c.pageData(w, r, "Schedule a post")
		data["Action"] = createRoute
		data["Post"] = &ScheduledPost{PostType: PostTypeOther}
		c.render(w, "editor.html", "base", data)
		return
	}

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		post, err := c.postFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := c.api.CreateScheduledPost(r.Context(), post); err != nil {
			log.Printf("creating scheduled post: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (c *Console) Edit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if r.Method == http.MethodGet {
		post, err := c.api.GetScheduledPost(r.Context(), id)
		if errors.Is(err, ErrPostNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Printf("fetching scheduled post: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data := c.pageData(w, r, "Edit scheduled post")
		data["Action"] = createRoute + "/" + url.PathEscape(id)
		data["Post"] = post
		c.render(w, "editor.html", "base", data)
		return
	}

	if r.Method == http.MethodPost {
		if !parseFormWithCSRF(w, r) {
			return
		}

		post, err := c.postFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		post.ID = id

		err = c.api.UpdateScheduledPost(r.Context(), post)
		if errors.Is(err, ErrPostNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Printf("updating scheduled post: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
