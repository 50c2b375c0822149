// Package format renders flattened provider records into the text blocks
// returned by the tool catalog.
package format

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

const maxDescriptionLength = 300

// Truncate trims surrounding whitespace and caps the text at maxLen runes,
// appending an ellipsis when anything was cut.
func Truncate(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

// RecordLine renders one reference record (queue, user, category...) as a
// single line: **name** - title [type] <email> (description).
func RecordLine(rec daktela.Record) string {
	name := rec.String("name")
	if name == "" {
		name = "?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", name)

	if title := rec.String("title"); title != "" {
		b.WriteString(" - " + title)
	}
	if typ := rec.String("type"); typ != "" {
		b.WriteString(" [" + typ + "]")
	}
	if email := rec.String("email"); email != "" {
		b.WriteString(" <" + email + ">")
	}
	if desc := Truncate(rec.String("description"), 100); desc != "" {
		b.WriteString(" (" + desc + ")")
	}

	return b.String()
}

// List renders one page of records with a "Showing a-b of N" header and a
// next-page hint when more pages remain.
func List(records []daktela.Record, total, skip int, entity string) string {
	if len(records) == 0 {
		return fmt.Sprintf("No %s found.", entity)
	}

	end := skip + len(records)

	var b strings.Builder
	fmt.Fprintf(&b, "Showing %d-%d of %d %s:\n", skip+1, end, total, entity)

	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RecordLine(rec))
	}

	if end < total {
		fmt.Fprintf(&b, "\n\n(Use skip=%d to see next page)", end)
	}

	return b.String()
}

var labelCaser = cases.Title(language.English)

// Label turns a provider field name into a display label: snake case split,
// each word title-cased.
func Label(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		parts[i] = labelCaser.String(p)
	}
	return strings.Join(parts, " ")
}

// Detail renders a full record as "Label: value" lines in stable field
// order. Related-entity fields reduce to their display form; nested
// collections are summarized by size rather than dumped.
func Detail(rec daktela.Record) string {
	fields := make([]string, 0, len(rec))
	for field := range rec {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		value := displayValue(rec[field])
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", Label(field), value)
	}

	return strings.TrimRight(b.String(), "\n")
}

func displayValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return Truncate(value, maxDescriptionLength)
	case bool:
		if value {
			return "yes"
		}
		return "no"
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	case map[string]any:
		return daktela.ParseRef(v).Display()
	case []any:
		if len(value) == 0 {
			return ""
		}
		return fmt.Sprintf("(%d items)", len(value))
	default:
		return fmt.Sprintf("%v", value)
	}
}
