package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/h2non/filetype"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

const (
	MaxVideoSize  = 500 * 1024 * 1024
	maxTitleRunes = 200
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists every problem found in one request.
type ValidationError struct {
	Problems []string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type ValidationService interface {
	ValidatePost(pc *transfer.PostCreation) error
	ValidateContentRequest(req *transfer.ContentRequest) error
	ValidateConnect(platform string, req *transfer.ConnectRequest) error
	ValidateScheduleTime(now, t time.Time) error
	ValidateVideo(header []byte, size int64) error
}

type validationService struct {
	v     *validator.Validate
	rules *caption.Rules
}

func NewValidationService(rules *caption.Rules) ValidationService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &validationService{v: v, rules: rules}
}

func (s *validationService) ValidatePost(pc *transfer.PostCreation) error {
	var problems []string
	problems = append(problems, s.structProblems(pc)...)
	problems = append(problems, s.platformProblems(pc.Platforms)...)

	platforms := make([]string, 0, len(pc.Overrides))
	for p := range pc.Overrides {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	for _, p := range platforms {
		o := pc.Overrides[p]
		if !contains(pc.Platforms, p) {
			problems = append(problems, fmt.Sprintf("platform_specific.%s: platform is not targeted", p))
			continue
		}
		rule := s.rules.For(p)
		maxTitle := rule.MaxTitle
		if maxTitle <= 0 {
			maxTitle = maxTitleRunes
		}
		if utf8.RuneCountInString(o.Title) > maxTitle {
			problems = append(problems, fmt.Sprintf("%s title too long (max %d chars)", p, maxTitle))
		}
		if utf8.RuneCountInString(o.Description) > rule.MaxCaption {
			problems = append(problems, fmt.Sprintf("%s description too long (max %d chars)", p, rule.MaxCaption))
		}
		if len(o.Hashtags) > rule.MaxHashtags {
			problems = append(problems, fmt.Sprintf("%s too many hashtags (max %d)", p, rule.MaxHashtags))
		}
	}

	if pc.ScheduleTime != nil {
		if err := s.ValidateScheduleTime(time.Now(), *pc.ScheduleTime); err != nil {
			problems = append(problems, "schedule_time: "+err.Error())
		}
	}
	return asError(problems)
}

func (s *validationService) ValidateContentRequest(req *transfer.ContentRequest) error {
	problems := s.structProblems(req)
	problems = append(problems, s.platformProblems(req.Platforms)...)
	return asError(problems)
}

func (s *validationService) ValidateConnect(platform string, req *transfer.ConnectRequest) error {
	problems := s.structProblems(req)
	problems = append(problems, s.platformProblems([]string{platform})...)
	return asError(problems)
}

// ValidateScheduleTime rejects times in the past and more than a year ahead.
func (s *validationService) ValidateScheduleTime(now, t time.Time) error {
	return scheduler.ValidateScheduleTime(now, t)
}

// ValidateVideo checks the size and sniffs the container from the leading bytes.
func (s *validationService) ValidateVideo(header []byte, size int64) error {
	var problems []string
	if size <= 0 {
		problems = append(problems, "media: file is empty")
	}
	if size > MaxVideoSize {
		problems = append(problems, fmt.Sprintf("media: file too large (max %d bytes)", MaxVideoSize))
	}
	if len(header) > 0 && !filetype.IsVideo(header) {
		problems = append(problems, "media: unsupported file type")
	}
	return asError(problems)
}

func (s *validationService) structProblems(v any) []string {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		problems = append(problems, fmt.Sprintf("%s: %s", fieldPath(e), validationMessage(e)))
	}
	return problems
}

func (s *validationService) platformProblems(platforms []string) []string {
	known := s.rules.Names()
	var problems []string
	for _, p := range platforms {
		if p != "" && !contains(known, p) {
			problems = append(problems, fmt.Sprintf("platforms: unknown platform %q", p))
		}
	}
	return problems
}

// fieldPath drops the struct name from the namespace: PostCreation.hashtags[0] -> hashtags[0].
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must have at least " + e.Param() + " items"
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must have at most " + e.Param() + " items"
	case "unique":
		return "must not contain duplicates"
	default:
		return "invalid value"
	}
}

func asError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
