package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/ifuryst/scriptforge/internal/apiclient"
	"github.com/ifuryst/scriptforge/internal/history"
	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusColor(status models.SubmissionStatus) string {
	switch status {
	case models.StatusDone:
		return ansiGreen
	case models.StatusFailed:
		return ansiRed
	case models.StatusProcessing:
		return ansiYellow
	default:
		return ansiBlue
	}
}

func renderStatus(status models.SubmissionStatus, colorize bool) string {
	label := strings.ToUpper(string(status))
	if colorize {
		return statusColor(status) + label + ansiReset
	}
	return label
}

func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func renderHistory(entries []history.Entry, now time.Time, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Job", "Source URL", "Type", "Status", "Script", "Time"})

	for _, e := range entries {
		scriptID := ""
		if e.ScriptID != nil {
			scriptID = *e.ScriptID
		}
		tw.AppendRow(table.Row{
			e.JobID,
			text.Trim(e.SourceURL, 48),
			e.OutputType,
			renderStatus(e.Status, colorize),
			scriptID,
			timeAgo(e.CreatedAt, now),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderScript(s *script.Script, colorize bool) string {
	heading := func(title string) string {
		line := fmt.Sprintf("== %s ==", title)
		if colorize {
			return ansiBlue + line + ansiReset
		}
		return line
	}

	var b strings.Builder
	b.WriteString(heading("Titles") + "\n")
	for i, t := range s.TitleSuggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, t)
	}
	if s.Description != "" {
		b.WriteString("\n" + heading("Description") + "\n")
		b.WriteString(s.Description + "\n")
	}
	if len(s.Tags) > 0 {
		b.WriteString("\n" + heading("Tags") + "\n")
		b.WriteString(strings.Join(s.Tags, ", ") + "\n")
	}
	if len(s.Scenes) > 0 {
		b.WriteString("\n" + heading("Scenes") + "\n")
		for _, sc := range s.Scenes {
			fmt.Fprintf(&b, "\nSCENE %d\n%s\n", sc.Scene, sc.Text)
		}
	} else if s.FullText != "" {
		b.WriteString("\n" + heading("Script") + "\n")
		b.WriteString(s.FullText + "\n")
	}

	var meta []string
	if s.GenerationTimeMS > 0 {
		meta = append(meta, "generated in "+(time.Duration(s.GenerationTimeMS)*time.Millisecond).String())
	}
	if s.SourceLink != nil && *s.SourceLink != "" {
		meta = append(meta, "source "+*s.SourceLink)
	}
	if len(meta) > 0 {
		b.WriteString("\n" + strings.Join(meta, ", ") + "\n")
	}
	return b.String()
}

// mailtoURL builds a mailto link carrying the copy-all text as its body.
func mailtoURL(to string, s *script.Script) string {
	subject := "Your generated script"
	if len(s.TitleSuggestions) > 0 {
		subject = s.TitleSuggestions[0]
	}
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", s.CopyText())
	// mailto readers expect %20 rather than +.
	return "mailto:" + url.PathEscape(to) + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

func friendlyError(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, models.ErrRateLimited):
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return apiclient.RateLimitMessage
	case errors.Is(err, models.ErrTimeout):
		return "The script is taking longer than expected. It keeps generating in the background; check back later with 'scriptforge history --refresh'."
	default:
		return err.Error()
	}
}
