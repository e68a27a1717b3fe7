package main

import "time"

type PostType string

const (
	PostTypeGeneral  PostType = "general"
	PostTypeBirthday PostType = "birthday"
	PostTypeEvent    PostType = "event"
	PostTypeHoliday  PostType = "holiday"
	PostTypeOther    PostType = "other"
)

var postTypes = []PostType{PostTypeGeneral, PostTypeBirthday, PostTypeEvent, PostTypeHoliday, PostTypeOther}

// normalizePostType maps anything outside the known set to PostTypeOther.
func normalizePostType(s string) PostType {
	for _, pt := range postTypes {
		if string(pt) == s {
			return pt
		}
	}
	return PostTypeOther
}

type ScheduledPost struct {
	ID                  string    `json:"_id,omitempty"`
	PostType            PostType  `json:"post_type"`
	Message             string    `json:"message"`
	Images              []string  `json:"images"`
	SchedulePublishTime time.Time `json:"schedule_publish_time"`
}

type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}
