package script

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ifuryst/scriptforge/pkg/util"
)

const (
	fallbackTitle  = "Suggested Title"
	minTitleLength = 10
	maxTitleLength = 120
)

// stageOrder is the canonical order of a staged generation payload.
var stageOrder = []string{"hook", "intro", "main_content", "conclusion", "cta"}

// Raw carries the stored columns before normalisation. The byte slices hold
// whatever the column contained: JSON, a PostgreSQL array literal or text.
type Raw struct {
	ID               string
	SubmissionID     *string
	TitleSuggestions []byte
	Description      string
	Tags             []byte
	Scenes           []byte
	FullText         string
	LegacyFullText   string
	GenerationTimeMS int64
	SourceLink       *string
}

// Normalize never fails; malformed input degrades to defaults.
func Normalize(raw Raw) Script {
	scenes, stages := decodeScenes(decodeLoose(raw.Scenes))

	fullText := raw.FullText
	if stages != nil {
		fullText = strings.Join(stages, "\n\n")
	} else if fullText == "" {
		fullText = raw.LegacyFullText
	}

	s := Script{
		ID:               raw.ID,
		SubmissionID:     nonEmpty(raw.SubmissionID),
		Description:      raw.Description,
		Tags:             decodeTags(decodeLoose(raw.Tags)),
		Scenes:           scenes,
		FullText:         fullText,
		GenerationTimeMS: raw.GenerationTimeMS,
		SourceLink:       nonEmpty(raw.SourceLink),
	}
	s.TitleSuggestions = deriveTitles(decodeLoose(raw.TitleSuggestions), raw.Description, fullText)
	return s
}

// decodeLoose turns a stored column into a JSON value, falling back to the
// raw text when the column does not hold JSON.
func decodeLoose(b []byte) any {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return trimmed
	}
	return v
}

// parseList accepts a JSON array or a PostgreSQL array literal.
func parseList(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) {
		var v any
		_ = json.Unmarshal([]byte(s), &v)
		if arr, ok := v.([]any); ok {
			return stringsOf(arr), true
		}
		return nil, false
	}
	return util.ParsePGArray(s)
}

func decodeTags(v any) []string {
	switch t := v.(type) {
	case []any:
		return stringsOf(t)
	case string:
		if list, ok := parseList(t); ok {
			return list
		}
		return util.ParseTags(t)
	}
	return []string{}
}

// decodeScenes returns the scene list and, when the payload was a staged
// object, the non-empty stage texts in canonical order.
func decodeScenes(v any) ([]Scene, []string) {
	switch t := v.(type) {
	case string:
		var inner any
		if err := json.Unmarshal([]byte(t), &inner); err != nil {
			return []Scene{}, nil
		}
		if _, again := inner.(string); again {
			return []Scene{}, nil
		}
		return decodeScenes(inner)
	case []any:
		return scenesFromArray(t), nil
	case map[string]any:
		if !isStaged(t) {
			return []Scene{}, nil
		}
		stages := stageTexts(t)
		scenes := make([]Scene, 0, len(stages))
		for i, text := range stages {
			scenes = append(scenes, Scene{Scene: i + 1, Text: text})
		}
		return scenes, stages
	}
	return []Scene{}, nil
}

func scenesFromArray(items []any) []Scene {
	scenes := make([]Scene, 0, len(items))
	for i, item := range items {
		sc := Scene{Scene: i + 1}
		obj, ok := item.(map[string]any)
		if !ok {
			sc.Text = stringify(item)
			scenes = append(scenes, sc)
			continue
		}
		if n, ok := sceneNumber(obj["scene"]); ok {
			sc.Scene = n
		}
		if text, present := obj["text"]; present {
			sc.Text = stringify(text)
		} else {
			sc.Text = stringify(obj)
		}
		scenes = append(scenes, sc)
	}
	sort.SliceStable(scenes, func(i, j int) bool {
		return scenes[i].Scene < scenes[j].Scene
	})
	return scenes
}

func sceneNumber(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n >= 1 {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && i >= 1 {
			return i, true
		}
	}
	return 0, false
}

func isStaged(obj map[string]any) bool {
	for _, key := range stageOrder {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

func stageTexts(obj map[string]any) []string {
	texts := make([]string, 0, len(stageOrder))
	for _, key := range stageOrder {
		text, ok := obj[key].(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

func deriveTitles(v any, description, fullText string) []string {
	switch t := v.(type) {
	case []any:
		if titles := stringsOf(t); len(titles) > 0 {
			return titles
		}
	case string:
		if list, ok := parseList(t); ok {
			if len(list) > 0 {
				return list
			}
		} else if title := strings.TrimSpace(t); title != "" {
			return []string{title}
		}
	}

	if line, ok := util.FirstLineLongerThan(description, minTitleLength); ok {
		return []string{util.TruncateRunes(line, maxTitleLength)}
	}
	if line, ok := util.FirstLineLongerThan(fullText, minTitleLength); ok {
		return []string{util.TruncateRunes(line, maxTitleLength)}
	}
	return []string{fallbackTitle}
}

// stringsOf keeps non-empty elements in order.
func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		s := strings.TrimSpace(stringify(item))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
