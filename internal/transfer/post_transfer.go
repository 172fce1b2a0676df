package transfer

import (
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

type PostCreation struct {
	Title        string                            `json:"title" validate:"required,max=200"`
	Description  string                            `json:"description" validate:"max=5000"`
	Category     string                            `json:"category" validate:"max=50"`
	Hashtags     []string                          `json:"hashtags" validate:"max=50,dive,required"`
	Platforms    []string                          `json:"platforms" validate:"required,min=1,unique,dive,required"`
	Overrides    map[string]models.PlatformContent `json:"platform_specific"`
	MediaKey     string                            `json:"media_key"`
	ScheduleTime *time.Time                        `json:"schedule_time"`
	// Generate asks for AI content before the post is saved.
	Generate bool   `json:"generate_content"`
	Tone     string `json:"tone" validate:"max=50"`
	Audience string `json:"audience" validate:"max=100"`
}

type ContentRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Category     string   `json:"category" validate:"max=50"`
	Platforms    []string `json:"platforms" validate:"required,min=1,unique,dive,required"`
	Tone         string   `json:"tone" validate:"max=50"`
	Audience     string   `json:"audience" validate:"max=100"`
	DurationHint string   `json:"duration_hint" validate:"max=50"`
}

type ConnectRequest struct {
	Credentials map[string]string `json:"credentials" validate:"required,min=1"`
}
