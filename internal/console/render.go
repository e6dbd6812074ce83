// ABOUTME: Pure mapping from a normalized outcome to log entries and a result modal
// ABOUTME: Modal sections are the raw result objects pretty-printed with two-space indent

package console

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/2389/docex-gateway/internal/api"
)

// Section is one titled result dump inside a Modal.
type Section struct {
	Title string
	Body  string
}

// Modal holds the result dumps shown after a successful call.
type Modal struct {
	Sections []Section
}

// Text returns the modal contents as plain text, suitable for copying.
func (m *Modal) Text() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for i, s := range m.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(s.Body)
	}
	return b.String()
}

// Rendering is what a front end shows for one outcome. Entries are in the
// order they should be appended to the log.
type Rendering struct {
	Entries []Entry
	Modal   *Modal
}

// Render converts an outcome into log entries and an optional modal.
func Render(mode api.Mode, o *api.Outcome) Rendering {
	if o == nil {
		return Rendering{Entries: []Entry{entry(SourceSystem, KindError, "Empty response")}}
	}

	switch o.Kind {
	case api.OutcomeVerificationFailed:
		r := Rendering{Entries: []Entry{entry(SourceDocument, KindError, "❌ Document verification failed")}}
		if o.Verification != nil && o.Verification.Message != "" {
			r.Entries = append(r.Entries, entry(SourceDocument, KindMCP, o.Verification.Message))
		}
		return r
	case api.OutcomeSuccess:
	default:
		return Rendering{Entries: []Entry{entry(SourceSystem, KindError, "Unexpected response status: "+string(o.Status))}}
	}

	var r Rendering
	modal := &Modal{}
	switch mode {
	case api.ModeProcess:
		r.Entries = append(r.Entries, verificationEntries(o.Verification)...)
		modal.Sections = append(modal.Sections, section("Verification", o.VerificationRaw))
		if o.Summary != nil {
			r.Entries = append(r.Entries, summaryEntry(o.Summary))
			modal.Sections = append(modal.Sections, section("Summarization", o.SummaryRaw))
		}
	case api.ModeVerify:
		r.Entries = verificationEntries(o.Verification)
		modal.Sections = append(modal.Sections, section("Verification", o.VerificationRaw))
	case api.ModeSummarize:
		r.Entries = []Entry{summaryEntry(o.Summary)}
		modal.Sections = append(modal.Sections, section("Summarization", o.SummaryRaw))
	default:
		return Rendering{Entries: []Entry{entry(SourceSystem, KindError, "Unknown mode: "+string(mode))}}
	}
	r.Modal = modal
	return r
}

func entry(source string, kind Kind, message string) Entry {
	return Entry{Source: source, Kind: kind, Message: message}
}

func verificationEntries(v *api.VerificationResult) []Entry {
	if v == nil {
		return []Entry{entry(SourceDocument, KindError, "❌ No verification result")}
	}
	var out []Entry
	if v.Verified {
		out = append(out, entry(SourceDocument, KindSuccess, "✅ Document verified"))
	} else {
		out = append(out, entry(SourceDocument, KindError, "❌ Document verification failed"))
	}
	if v.Message != "" {
		out = append(out, entry(SourceDocument, KindMCP, v.Message))
	}
	return out
}

func summaryEntry(s *api.SummaryResult) Entry {
	switch {
	case s == nil:
		return entry(SourceSummarization, KindError, "No summarization result")
	case s.Summary != "":
		return entry(SourceSummarization, KindSuccess, "📝 Summary: "+s.Summary)
	case s.Message != "":
		return entry(SourceSummarization, KindError, s.Message)
	case s.Error != "":
		return entry(SourceSummarization, KindError, s.Error)
	default:
		return entry(SourceSummarization, KindError, "Summarization returned no summary")
	}
}

// section pretty-prints raw verbatim; invalid JSON is shown as-is.
func section(title string, raw json.RawMessage) Section {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return Section{Title: title, Body: string(raw)}
	}
	return Section{Title: title, Body: buf.String()}
}
