package models

import "time"

type PlatformVariant struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	Caption     string   `json:"caption"`
	CategoryID  string   `json:"category_id,omitempty"`
}

type GeneratedContent struct {
	Hashtags        []string                   `json:"hashtags"`
	Description     string                     `json:"description"`
	Platforms       map[string]PlatformVariant `json:"platform_specific"`
	EngagementTips  []string                   `json:"engagement_tips"`
	ViralScore      int                        `json:"viral_score"`
	ScorePrediction map[string]int             `json:"score_prediction,omitempty"`
	Fallback        bool                       `json:"fallback"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}
