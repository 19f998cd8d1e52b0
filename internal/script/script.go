// Package script holds the strict shape of a generated script and the
// normalisation that produces it from a loosely typed stored row.
package script

import (
	"fmt"
	"strings"

	"github.com/ifuryst/scriptforge/internal/models"
)

type Scene struct {
	Scene int    `json:"scene"`
	Text  string `json:"text"`
}

type Script struct {
	ID               string   `json:"id"`
	SubmissionID     *string  `json:"submission_id"`
	TitleSuggestions []string `json:"title_suggestions"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	Scenes           []Scene  `json:"scenes"`
	FullText         string   `json:"full_text"`
	GenerationTimeMS int64    `json:"generation_time_ms"`
	SourceLink       *string  `json:"source_link"`
}

// FromModel normalises a stored row.
func FromModel(row *models.Script) Script {
	if row == nil {
		return Normalize(Raw{})
	}
	raw := Raw{
		ID:               row.ID,
		SubmissionID:     row.SubmissionID,
		TitleSuggestions: row.TitleSuggestions,
		Description:      deref(row.Description),
		Tags:             row.Tags,
		Scenes:           row.Scenes,
		FullText:         deref(row.FullText),
		LegacyFullText:   deref(row.LegacyFullText),
		SourceLink:       row.SourceLink,
	}
	switch {
	case row.GenerationTimeMS != nil && *row.GenerationTimeMS != 0:
		raw.GenerationTimeMS = *row.GenerationTimeMS
	case row.LegacyGenerationTime != nil:
		raw.GenerationTimeMS = *row.LegacyGenerationTime
	}
	return Normalize(raw)
}

// CopyText renders the script as a single plain text block suitable for the
// clipboard or an email body.
func (s Script) CopyText() string {
	title := ""
	if len(s.TitleSuggestions) > 0 {
		title = s.TitleSuggestions[0]
	}

	scenes := make([]string, 0, len(s.Scenes))
	for _, sc := range s.Scenes {
		scenes = append(scenes, fmt.Sprintf("SCENE %d\n%s", sc.Scene, sc.Text))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", title)
	fmt.Fprintf(&b, "Description:\n%s\n\n", s.Description)
	fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(s.Tags, ", "))
	b.WriteString("--- SCRIPT ---\n\n")
	b.WriteString(strings.Join(scenes, "\n\n"))
	return strings.TrimSpace(b.String())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
