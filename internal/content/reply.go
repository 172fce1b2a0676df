package content

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Outcome classifies one provider call.
type Outcome int

const (
	Parsed Outcome = iota
	Malformed
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	default:
		return "transport_error"
	}
}

type platformReply struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
}

type aiReply struct {
	Hashtags       []string                 `json:"hashtags"`
	Description    string                   `json:"description"`
	Platforms      map[string]platformReply `json:"platform_specific"`
	EngagementTips []string                 `json:"engagement_tips"`
}

type reply struct {
	kind    Outcome
	content *aiReply
	raw     string
	err     error
}

var (
	fencePattern       = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	hashtagPattern     = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	descriptionPattern = regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

func classify(raw string, err error) reply {
	if err != nil {
		return reply{kind: TransportError, err: err}
	}

	body := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var r aiReply
	if jsonErr := json.Unmarshal([]byte(body), &r); jsonErr != nil {
		return reply{kind: Malformed, raw: raw, err: jsonErr}
	}
	if strings.TrimSpace(r.Description) == "" && len(r.Hashtags) == 0 {
		return reply{kind: Malformed, raw: raw}
	}
	return reply{kind: Parsed, content: &r, raw: raw}
}

// extract pulls hashtag-like tokens and a description field out of a reply that is not valid JSON.
func extract(raw string) (*aiReply, bool) {
	var r aiReply
	for _, m := range hashtagPattern.FindAllStringSubmatch(raw, -1) {
		r.Hashtags = append(r.Hashtags, m[1])
	}
	if m := descriptionPattern.FindStringSubmatch(raw); m != nil {
		var s string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &s); err == nil {
			r.Description = s
		} else {
			r.Description = m[1]
		}
	}
	if r.Description == "" && len(r.Hashtags) == 0 {
		return nil, false
	}
	return &r, true
}
