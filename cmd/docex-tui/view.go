// ABOUTME: Terminal rendering for the console: colored log entries, health indicators, modals
// ABOUTME: All writes go through one printer so concurrent goroutines never interleave lines

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/docex-gateway/internal/console"
)

var (
	userColor    = color.New(color.FgCyan)
	systemColor  = color.New(color.FgWhite, color.Faint)
	mcpColor     = color.New(color.FgMagenta)
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	titleColor   = color.New(color.FgYellow, color.Bold)
	onColor      = color.New(color.FgGreen)
	offColor     = color.New(color.FgRed)
)

func kindColor(k console.Kind) *color.Color {
	switch k {
	case console.KindUser:
		return userColor
	case console.KindMCP:
		return mcpColor
	case console.KindError:
		return errorColor
	case console.KindSuccess:
		return successColor
	default:
		return systemColor
	}
}

// formatEntry renders one log line as "[15:04:05] Source: message".
func formatEntry(e console.Entry) string {
	return kindColor(e.Kind).Sprintf("[%s] %s: %s", e.Timestamp.Format("15:04:05"), e.Source, e.Message)
}

func indicator(name string, on bool) string {
	if on {
		return onColor.Sprint("● ") + name
	}
	return offColor.Sprint("○ ") + name
}

// formatIndicators renders the three health indicators on one line.
func formatIndicators(ind console.Indicators) string {
	return strings.Join([]string{
		indicator("Document", ind.Document),
		indicator("Summarization", ind.Summarization),
		indicator("Connection", ind.Connection),
	}, "  ")
}

// formatModal renders each section as a colored title followed by its body.
func formatModal(m *console.Modal) string {
	if m == nil || len(m.Sections) == 0 {
		return ""
	}
	rule := strings.Repeat("─", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	for i, s := range m.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleColor.Sprint(s.Title) + "\n")
		b.WriteString(s.Body + "\n")
	}
	b.WriteString(rule)
	return b.String()
}

// printer serializes terminal output.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, a...)
}

func (p *printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, a...)
}
