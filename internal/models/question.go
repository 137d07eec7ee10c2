package models

import (
	"sort"
	"strings"
	"time"
)

type Question struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"-"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// QuestionFilter narrows List. Empty fields match everything.
type QuestionFilter struct {
	Search string
	Tag    string
}

type CreateQuestionRequest struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
}

// UpdateQuestionRequest carries a partial update; nil fields keep their value.
type UpdateQuestionRequest struct {
	Title *string   `json:"title"`
	Text  *string   `json:"text"`
	Tags  *[]string `json:"tags"`
}

// NormalizeTags lower-cases and trims tag names, dropping blanks and repeats.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// ParseTags splits the comma separated form field used by the edit page.
func ParseTags(field string) []string {
	return NormalizeTags(strings.Split(field, ","))
}
