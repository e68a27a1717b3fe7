package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func initDB(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scheduled_posts (
		id TEXT PRIMARY KEY,
		post_type TEXT NOT NULL DEFAULT 'other',
		message TEXT NOT NULL,
		schedule_publish_time DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS post_images (
		post_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (post_id, position)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	if err := migrateDB(db); err != nil {
		return err
	}

	return nil
}

func migrateDB(db *sql.DB) error {
	// Older databases predate created_at on scheduled_posts.
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('scheduled_posts') WHERE name='created_at'`).Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec(`ALTER TABLE scheduled_posts ADD COLUMN created_at DATETIME`)
		if err != nil {
			return err
		}
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_scheduled_posts_publish ON scheduled_posts(schedule_publish_time)`)
	return err
}

// seedDB fills an empty local store with a few demo posts.
func seedDB(store *PostStore) error {
	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM scheduled_posts").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	posts := []ScheduledPost{
		{
			PostType:            PostTypeBirthday,
			Message:             "Happy birthday to our longest-serving volunteer!\n\nDrop by the front desk for cake.",
			Images:              []string{"https://picsum.photos/seed/cake/800/600", "https://picsum.photos/seed/balloons/800/600"},
			SchedulePublishTime: now.Add(48 * time.Hour),
		},
		{
			PostType:            PostTypeEvent,
			Message:             "Open house this Saturday from 10 to 2. Bring a friend.",
			Images:              []string{"https://picsum.photos/seed/openhouse/800/600"},
			SchedulePublishTime: now.Add(5 * 24 * time.Hour),
		},
		{
			PostType:            PostTypeHoliday,
			Message:             "We are closed Monday for the holiday. See you Tuesday!",
			SchedulePublishTime: now.Add(9 * 24 * time.Hour),
		},
	}

	for _, post := range posts {
		if _, err := store.CreateScheduledPost(context.Background(), post); err != nil {
			return fmt.Errorf("seeding post: %w", err)
		}
	}

	log.Println("successfully seeded demo posts")
	return nil
}
