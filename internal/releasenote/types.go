package releasenote

import (
	"strings"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

// ChangeType classifies a change-log entry
type ChangeType string

const (
	ChangeImprovement ChangeType = "improvement"
	ChangeNewFeature  ChangeType = "new-feature"
	ChangeIssueFix    ChangeType = "issue-fix"
	ChangeBugFix      ChangeType = "bug-fix"
	ChangeOther       ChangeType = "other"
)

// Valid reports whether t is one of the known change types
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeImprovement, ChangeNewFeature, ChangeIssueFix, ChangeBugFix, ChangeOther:
		return true
	}
	return false
}

// Source tells where an entry was read from
type Source string

const (
	SourceTable Source = "table"
	SourceText  Source = "text"
)

// Sentinel metadata values used when a pattern does not match
const (
	UnknownVersion = "Unknown"
	NoComponent    = "-"
)

// Entry is one classified change-log item
type Entry struct {
	Type        ChangeType `json:"type"`
	Label       string     `json:"label"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description"`
	TicketID    string     `json:"ticket_id,omitempty"`
	Page        int        `json:"page"`
	Source      Source     `json:"source"`
}

// Render formats the entry as "[Label] Category * Description (Ticket)".
// The category segment is left out when empty or equal to the label, and the
// ticket segment when empty or equal to the category.
func (e Entry) Render() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Label)
	sb.WriteString("]")
	if e.Category != "" && e.Category != e.Label {
		sb.WriteString(" ")
		sb.WriteString(e.Category)
		sb.WriteString(" *")
	}
	sb.WriteString(" ")
	sb.WriteString(e.Description)
	if e.TicketID != "" && e.TicketID != e.Category {
		sb.WriteString(" (")
		sb.WriteString(e.TicketID)
		sb.WriteString(")")
	}
	return sb.String()
}

// Fragment is a (label, category, description, ticket) tuple read from one
// table row or one run of text lines, before repair
type Fragment struct {
	Label       string
	Category    string
	Description string
	TicketID    string
}

// SecurityComponents holds the TLS and SSH library versions shipped with the
// release, or NoComponent
type SecurityComponents struct {
	TLS string `json:"tls"`
	SSH string `json:"ssh"`
}

// Metadata is the document-level information found in the full text
type Metadata struct {
	Version  string             `json:"version"`
	Security SecurityComponents `json:"security_components"`
}

// Record is the structured result of parsing one release-note document.
// Entries and Items are index-aligned.
type Record struct {
	Version  string             `json:"version"`
	Security SecurityComponents `json:"security_components"`
	Entries  []string           `json:"entries"`
	Items    []Entry            `json:"items"`
	RawText  string             `json:"raw_text"`
}

// Improvements returns the rendered improvement and new-feature entries
func (r *Record) Improvements() []string {
	return r.rendered(func(t ChangeType) bool {
		return t == ChangeImprovement || t == ChangeNewFeature
	})
}

// Issues returns the rendered issue, bug and other entries
func (r *Record) Issues() []string {
	return r.rendered(func(t ChangeType) bool {
		return t != ChangeImprovement && t != ChangeNewFeature
	})
}

func (r *Record) rendered(keep func(ChangeType) bool) []string {
	out := []string{}
	for _, item := range r.Items {
		if keep(item.Type) {
			out = append(out, item.Render())
		}
	}
	return out
}

// Page is one page of a release-note document as the engine sees it
type Page interface {
	Number() int
	Text() string
	Words() []layout.Word
	Width() float64
	Tables(settings layout.TableSettings) []layout.Table
}

// Document is an ordered sequence of pages
type Document interface {
	Pages() []Page
}
