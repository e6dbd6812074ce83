// ABOUTME: Action controller mapping each mode to its labels, endpoint, and body field
// ABOUTME: Pure data; the session applies it when the mode changes

package console

import "github.com/2389/docex-gateway/internal/api"

// ModeSpec is the UI copy and wire details of one mode.
type ModeSpec struct {
	Mode         api.Mode
	ButtonLabel  string
	LoadingLabel string
	Endpoint     string
	ContentField string
}

// Modes lists every mode spec in display order.
var Modes = []ModeSpec{
	{
		Mode:         api.ModeProcess,
		ButtonLabel:  "Verify & Summarize",
		LoadingLabel: "Processing...",
		Endpoint:     api.PathProcess,
		ContentField: "document_content",
	},
	{
		Mode:         api.ModeVerify,
		ButtonLabel:  "Verify Document",
		LoadingLabel: "Verifying...",
		Endpoint:     api.PathVerify,
		ContentField: "document_content",
	},
	{
		Mode:         api.ModeSummarize,
		ButtonLabel:  "Summarize Text",
		LoadingLabel: "Summarizing...",
		Endpoint:     api.PathSummarize,
		ContentField: "text_content",
	},
}

// SpecFor returns the spec of m. Unknown modes get the zero ModeSpec.
func SpecFor(m api.Mode) ModeSpec {
	for _, s := range Modes {
		if s.Mode == m {
			return s
		}
	}
	return ModeSpec{}
}
