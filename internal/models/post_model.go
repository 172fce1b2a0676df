package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusReady     PostStatus = "ready"
	PostStatusPosting   PostStatus = "posting"
	PostStatusPosted    PostStatus = "posted"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

var postTransitions = map[PostStatus][]PostStatus{
	PostStatusDraft:     {PostStatusScheduled, PostStatusReady},
	PostStatusScheduled: {PostStatusPosting, PostStatusCancelled},
	PostStatusReady:     {PostStatusPosting},
	PostStatusPosting:   {PostStatusPosted, PostStatusFailed},
}

func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	for _, allowed := range postTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s PostStatus) Terminal() bool {
	return len(postTransitions[s]) == 0
}

// PlatformContent overrides the shared title/description/hashtags for one platform.
type PlatformContent struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

type Post struct {
	ID           string                     `db:"id" json:"id"`
	Title        string                     `db:"title" json:"title"`
	Description  string                     `db:"description" json:"description"`
	Category     string                     `db:"category" json:"category"`
	Hashtags     []string                   `db:"hashtags" json:"hashtags"`
	Platforms    []string                   `db:"platforms" json:"platforms"`
	Overrides    map[string]PlatformContent `db:"overrides" json:"overrides,omitempty"`
	MediaKey     string                     `db:"media_key" json:"media_key,omitempty"`
	Status       PostStatus                 `db:"status" json:"status"`
	ScheduleTime *time.Time                 `db:"schedule_time" json:"schedule_time,omitempty"`
	Results      map[string]PostResult      `db:"results" json:"results,omitempty"`
	AIContent    *GeneratedContent          `db:"ai_content" json:"ai_content,omitempty"`
	ViralScore   int                        `db:"viral_score" json:"viral_score"`
	CreatedAt    time.Time                  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time                  `db:"updated_at" json:"updated_at"`
}

// Transition moves the post to next, or returns ErrInvalidTransition.
func (p *Post) Transition(next PostStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// View returns the read-only copy handed to adapters.
func (p *Post) View() PostView {
	v := PostView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Hashtags:    append([]string(nil), p.Hashtags...),
		Platforms:   append([]string(nil), p.Platforms...),
		MediaKey:    p.MediaKey,
	}
	if len(p.Overrides) > 0 {
		v.Overrides = make(map[string]PlatformContent, len(p.Overrides))
		for k, o := range p.Overrides {
			o.Hashtags = append([]string(nil), o.Hashtags...)
			v.Overrides[k] = o
		}
	}
	return v
}

type PostView struct {
	ID          string
	Title       string
	Description string
	Category    string
	Hashtags    []string
	Platforms   []string
	Overrides   map[string]PlatformContent
	MediaKey    string
}

// ContentFor merges the platform override over the shared fields.
func (v PostView) ContentFor(platform string) PlatformContent {
	c := PlatformContent{
		Title:       v.Title,
		Description: v.Description,
		Hashtags:    v.Hashtags,
	}
	o, ok := v.Overrides[platform]
	if !ok {
		return c
	}
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Description != "" {
		c.Description = o.Description
	}
	if len(o.Hashtags) > 0 {
		c.Hashtags = o.Hashtags
	}
	return c
}

// PostFields is a partial update. Nil fields are left untouched.
type PostFields struct {
	Title        *string
	Description  *string
	Hashtags     []string
	Overrides    map[string]PlatformContent
	Status       *PostStatus
	ScheduleTime *time.Time
	Results      map[string]PostResult
	AIContent    *GeneratedContent
	ViralScore   *int
}

type ScheduledPostFilter struct {
	Platform string
	Date     *time.Time
}
