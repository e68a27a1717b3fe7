package main

import (
	"database/sql"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"golang.org/x/sync/singleflight"
)

type Console struct {
	db        *sql.DB
	api       PostAPI
	gate      *Gate
	ui        sessions.Store
	loc       *time.Location
	templates map[string]*template.Template
	deletes   singleflight.Group
}

func NewConsole(db *sql.DB, api PostAPI, gate *Gate, ui sessions.Store, loc *time.Location) *Console {
	return &Console{
		db:        db,
		api:       api,
		gate:      gate,
		ui:        ui,
		loc:       loc,
		templates: loadTemplates(loc),
	}
}

func newUIStore(key []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (c *Console) routes() http.Handler {
	r := mux.NewRouter()

	fs := http.FileServer(http.Dir("static"))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))

	r.HandleFunc("/", c.Home).Methods(http.MethodGet)
	r.HandleFunc("/board", c.BoardFragment).Methods(http.MethodGet)

	r.HandleFunc("/admin/toggle", c.ToggleAdmin).Methods(http.MethodPost)
	r.HandleFunc("/admin/elevate", c.Elevate).Methods(http.MethodPost)
	r.HandleFunc("/admin/cancel", c.CancelPrompt).Methods(http.MethodPost)

	// Admin checks happen inside the handlers and middleware, not only in the page.
	r.HandleFunc("/posts/{id}/delete", c.DeletePost).Methods(http.MethodPost)
	r.HandleFunc(createRoute, c.requireAdmin(c.Create)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(createRoute+"/{id}", c.requireAdmin(c.Edit)).Methods(http.MethodGet, http.MethodPost)

	return r
}

func main() {
	godotenv.Load()

	cfg, err := loadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	secureCookies = cfg.SecureCookies

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err = initDB(db); err != nil {
		log.Fatalf("initializing database: %v", err)
	}

	hash, err := initAdminPassword(db, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("initializing admin password: %v", err)
	}

	if err = cleanupExpiredSessions(db); err != nil {
		log.Printf("cleaning up expired sessions: %v", err)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if err := cleanupExpiredSessions(db); err != nil {
				log.Printf("cleaning up expired sessions: %v", err)
			}
		}
	}()

	var api PostAPI
	if cfg.APIURL != "" {
		api = NewAPIClient(cfg.APIURL, cfg.APITimeout)
	} else {
		log.Println("API_URL not set, serving scheduled posts from the local database")
		store := NewPostStore(db)
		if cfg.SeedDemoPosts {
			if err = seedDB(store); err != nil {
				log.Fatalf("seeding database: %v", err)
			}
		}
		api = store
	}

	key := []byte(cfg.SessionKey)
	if len(key) == 0 {
		log.Println("WARNING: SESSION_KEY not set, prompt state will not survive a restart")
		token, err := generateToken()
		if err != nil {
			log.Fatalf("generating session key: %v", err)
		}
		key = []byte(token)
	}

	console := NewConsole(db, api, NewGate(db, hash), newUIStore(key), loc)

	log.Printf("Server starting on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, console.routes()))
}
