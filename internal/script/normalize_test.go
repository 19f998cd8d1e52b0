package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ifuryst/scriptforge/internal/models"
)

func TestNormalizeStagedScenes(t *testing.T) {
	s := Normalize(Raw{
		ID:     "s1",
		Scenes: []byte(`{"hook": "H", "intro": "I", "cta": "C"}`),
	})

	require.Equal(t, []Scene{
		{Scene: 1, Text: "H"},
		{Scene: 2, Text: "I"},
		{Scene: 3, Text: "C"},
	}, s.Scenes)
	require.Equal(t, "H\n\nI\n\nC", s.FullText)
}

func TestNormalizeStagedSkipsEmptyStagesAndOverridesFlatText(t *testing.T) {
	s := Normalize(Raw{
		Scenes:   []byte(`{"cta": "Subscribe", "main_content": "  ", "conclusion": "Wrap up", "hook": ""}`),
		FullText: "stale flat text",
	})

	require.Equal(t, []Scene{
		{Scene: 1, Text: "Wrap up"},
		{Scene: 2, Text: "Subscribe"},
	}, s.Scenes)
	require.Equal(t, "Wrap up\n\nSubscribe", s.FullText)
}

func TestNormalizeSceneArray(t *testing.T) {
	s := Normalize(Raw{
		Scenes: []byte(`[{"scene": 3, "text": "third"}, {"text": "second"}, "bare", {"scene": "1", "text": 42}]`),
	})

	require.Equal(t, []Scene{
		{Scene: 1, Text: "42"},
		{Scene: 2, Text: "second"},
		{Scene: 3, Text: "third"},
		{Scene: 3, Text: "bare"},
	}, s.Scenes)
}

func TestNormalizeSceneWithoutText(t *testing.T) {
	s := Normalize(Raw{
		Scenes: []byte(`[{"scene": 1, "body": "hello"}]`),
	})
	require.Equal(t, []Scene{{Scene: 1, Text: `{"body":"hello","scene":1}`}}, s.Scenes)
}

func TestNormalizeScenesEncodedAsString(t *testing.T) {
	s := Normalize(Raw{
		Scenes: []byte(`"[{\"scene\":1,\"text\":\"one\"}]"`),
	})
	require.Equal(t, []Scene{{Scene: 1, Text: "one"}}, s.Scenes)
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "json array", raw: `["a", "b"]`, want: []string{"a", "b"}},
		{name: "comma separated text", raw: "a, b, ,c", want: []string{"a", "b", "c"}},
		{name: "comma separated json string", raw: `"a, b, ,c"`, want: []string{"a", "b", "c"}},
		{name: "json list inside string", raw: `"[\"x\",\"y\"]"`, want: []string{"x", "y"}},
		{name: "postgres array", raw: `{go,"gin web"}`, want: []string{"go", "gin web"}},
		{name: "missing", raw: "", want: []string{}},
		{name: "object", raw: `{"a": 1}`, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Normalize(Raw{Tags: []byte(tc.raw)})
			require.Equal(t, tc.want, s.Tags)
		})
	}
}

func TestNormalizeTitleChain(t *testing.T) {
	long := strings.Repeat("x", 200)

	tests := []struct {
		name string
		raw  Raw
		want []string
	}{
		{
			name: "array kept",
			raw:  Raw{TitleSuggestions: []byte(`["One", "Two"]`)},
			want: []string{"One", "Two"},
		},
		{
			name: "plain string becomes single title",
			raw:  Raw{TitleSuggestions: []byte(`"Only title"`)},
			want: []string{"Only title"},
		},
		{
			name: "description first long line",
			raw:  Raw{Description: "tiny\nA description line that works\nmore"},
			want: []string{"A description line that works"},
		},
		{
			name: "short non-ascii description falls through",
			raw:  Raw{Description: "日本語タイトル"},
			want: []string{"Suggested Title"},
		},
		{
			name: "description truncated",
			raw:  Raw{Description: long},
			want: []string{strings.Repeat("x", 120)},
		},
		{
			name: "full text line",
			raw:  Raw{Description: "short", FullText: "short\nThis line is long enough to use"},
			want: []string{"This line is long enough to use"},
		},
		{
			name: "empty array falls through",
			raw:  Raw{TitleSuggestions: []byte(`[]`)},
			want: []string{"Suggested Title"},
		},
		{
			name: "literal fallback",
			raw:  Raw{},
			want: []string{"Suggested Title"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.raw).TitleSuggestions)
		})
	}
}

func TestNormalizeFullTextLegacyField(t *testing.T) {
	require.Equal(t, "legacy", Normalize(Raw{LegacyFullText: "legacy"}).FullText)
	require.Equal(t, "primary", Normalize(Raw{FullText: "primary", LegacyFullText: "legacy"}).FullText)
	require.Equal(t, "", Normalize(Raw{}).FullText)
}

func TestNormalizeMalformedInputDegrades(t *testing.T) {
	s := Normalize(Raw{
		TitleSuggestions: []byte(`{`),
		Tags:             []byte(`12`),
		Scenes:           []byte(`not json at all`),
	})

	require.Equal(t, []string{"{"}, s.TitleSuggestions)
	require.Equal(t, []string{}, s.Tags)
	require.Equal(t, []Scene{}, s.Scenes)
	require.Nil(t, s.SourceLink)
}

func TestFromModel(t *testing.T) {
	subID := "sub-1"
	desc := "A reasonably long description line"
	legacyTime := int64(1500)
	empty := ""

	s := FromModel(&models.Script{
		ID:                   "script-1",
		SubmissionID:         &subID,
		Description:          &desc,
		Tags:                 []byte(`{a,b}`),
		LegacyGenerationTime: &legacyTime,
		SourceLink:           &empty,
	})

	require.Equal(t, "script-1", s.ID)
	require.Equal(t, &subID, s.SubmissionID)
	require.Equal(t, []string{"a", "b"}, s.Tags)
	require.Equal(t, int64(1500), s.GenerationTimeMS)
	require.Nil(t, s.SourceLink)
	require.Equal(t, []string{desc}, s.TitleSuggestions)
}

func TestCopyText(t *testing.T) {
	s := Script{
		TitleSuggestions: []string{"Title A", "Title B"},
		Description:      "Desc",
		Tags:             []string{"a", "b"},
		Scenes:           []Scene{{Scene: 1, Text: "one"}, {Scene: 2, Text: "two"}},
	}

	want := "Title: Title A\n\nDescription:\nDesc\n\nTags: a, b\n\n--- SCRIPT ---\n\nSCENE 1\none\n\nSCENE 2\ntwo"
	require.Equal(t, want, s.CopyText())
}
