// ABOUTME: Tests for the pure outcome renderer
// ABOUTME: Each case normalizes a literal envelope and checks entries and modal

package console

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/docex-gateway/internal/api"
)

func outcome(t *testing.T, mode api.Mode, body string) *api.Outcome {
	t.Helper()
	var env api.Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	o, err := api.Normalize(mode, &env)
	require.NoError(t, err)
	return o
}

func kinds(entries []Entry) []Kind {
	out := make([]Kind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

func TestRender_VerifySuccess(t *testing.T) {
	r := Render(api.ModeVerify, outcome(t, api.ModeVerify, `{"status":"success","result":{"verified":true}}`))

	require.Len(t, r.Entries, 1)
	assert.Equal(t, KindSuccess, r.Entries[0].Kind)
	assert.Equal(t, SourceDocument, r.Entries[0].Source)
	assert.Contains(t, r.Entries[0].Message, "✅")

	require.NotNil(t, r.Modal)
	require.Len(t, r.Modal.Sections, 1)
	assert.Equal(t, "{\n  \"verified\": true\n}", r.Modal.Sections[0].Body)
}

func TestRender_VerifyNotVerifiedWithMessage(t *testing.T) {
	r := Render(api.ModeVerify, outcome(t, api.ModeVerify,
		`{"status":"success","result":{"verified":false,"message":"document revoked"}}`))

	assert.Equal(t, []Kind{KindError, KindMCP}, kinds(r.Entries))
	assert.Contains(t, r.Entries[0].Message, "❌")
	assert.Equal(t, "document revoked", r.Entries[1].Message)
	require.NotNil(t, r.Modal)
}

func TestRender_ProcessBothSections(t *testing.T) {
	r := Render(api.ModeProcess, outcome(t, api.ModeProcess,
		`{"status":"success","verification":{"verified":true,"message":"ok"},"summarization":{"success":true,"summary":"short"}}`))

	assert.Equal(t, []Kind{KindSuccess, KindMCP, KindSuccess}, kinds(r.Entries))
	assert.Equal(t, SourceSummarization, r.Entries[2].Source)
	assert.Contains(t, r.Entries[2].Message, "short")

	require.NotNil(t, r.Modal)
	require.Len(t, r.Modal.Sections, 2)
	assert.Equal(t, "Verification", r.Modal.Sections[0].Title)
	assert.Equal(t, "Summarization", r.Modal.Sections[1].Title)
}

func TestRender_ProcessVerificationFailed(t *testing.T) {
	r := Render(api.ModeProcess, outcome(t, api.ModeProcess,
		`{"status":"verification_failed","verification":{"verified":false,"message":"expired"}}`))

	require.Len(t, r.Entries, 2)
	assert.Equal(t, KindError, r.Entries[0].Kind)
	assert.Equal(t, "expired", r.Entries[1].Message)
	assert.Nil(t, r.Modal)
}

func TestRender_SummarizeDenied(t *testing.T) {
	r := Render(api.ModeSummarize, outcome(t, api.ModeSummarize,
		`{"status":"success","result":{"success":false,"message":"Invalid access key"}}`))

	require.Len(t, r.Entries, 1)
	assert.Equal(t, KindError, r.Entries[0].Kind)
	assert.Equal(t, "Invalid access key", r.Entries[0].Message)
	require.NotNil(t, r.Modal)
}

func TestRender_UnexpectedStatus(t *testing.T) {
	r := Render(api.ModeVerify, outcome(t, api.ModeVerify, `{"status":"pending"}`))

	require.Len(t, r.Entries, 1)
	assert.Equal(t, KindError, r.Entries[0].Kind)
	assert.Equal(t, "Unexpected response status: pending", r.Entries[0].Message)
	assert.Nil(t, r.Modal)
}

func TestRender_NilOutcome(t *testing.T) {
	r := Render(api.ModeVerify, nil)
	require.Len(t, r.Entries, 1)
	assert.Nil(t, r.Modal)
}

func TestModal_Text(t *testing.T) {
	m := &Modal{Sections: []Section{{Title: "A", Body: "1"}, {Title: "B", Body: "2"}}}
	assert.Equal(t, "A\n1\n\nB\n2", m.Text())

	var empty *Modal
	assert.Equal(t, "", empty.Text())
}

func TestSection_InvalidJSONShownVerbatim(t *testing.T) {
	s := section("X", json.RawMessage("not json"))
	assert.Equal(t, "not json", s.Body)
}
