// ABOUTME: Converts the overloaded wire envelope into a mode-keyed tagged union
// ABOUTME: Front ends render Outcomes and never branch on the envelope shape

package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OutcomeKind classifies a normalized envelope.
type OutcomeKind int

const (
	// OutcomeSuccess means the mode-appropriate result(s) are present.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeVerificationFailed means the call worked but the document did not verify.
	OutcomeVerificationFailed
	// OutcomeUnexpected means the envelope carried a status outside the known set.
	OutcomeUnexpected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeVerificationFailed:
		return "verification_failed"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the normalized form of an Envelope for a given Mode.
// Raw fields hold the result objects exactly as received.
type Outcome struct {
	Kind   OutcomeKind
	Mode   Mode
	Status Status

	Verification    *VerificationResult
	VerificationRaw json.RawMessage

	Summary    *SummaryResult
	SummaryRaw json.RawMessage
}

// ErrErrorEnvelope is returned by Normalize for envelopes with status "error";
// callers are expected to handle those before normalizing.
var ErrErrorEnvelope = errors.New("envelope carries an error status")

// Normalize converts env into an Outcome for mode. It fails when the envelope
// claims success but lacks the result the mode requires, or when a result
// object cannot be decoded.
func Normalize(mode Mode, env *Envelope) (*Outcome, error) {
	if env == nil {
		return nil, errors.New("nil envelope")
	}
	out := &Outcome{Mode: mode, Status: env.Status}

	switch env.Status {
	case StatusError:
		return nil, ErrErrorEnvelope
	case StatusSuccess:
		out.Kind = OutcomeSuccess
	case StatusVerificationFailed:
		out.Kind = OutcomeVerificationFailed
	default:
		out.Kind = OutcomeUnexpected
		return out, nil
	}

	var err error
	switch mode {
	case ModeProcess:
		if err = out.setVerification(env.Verification); err != nil {
			return nil, err
		}
		if out.Kind == OutcomeSuccess && out.Verification == nil {
			return nil, errors.New("success envelope without verification result")
		}
		err = out.setSummary(env.Summarization)
	case ModeVerify:
		raw := env.Result
		if isEmpty(raw) {
			raw = env.Verification
		}
		err = out.setVerification(raw)
		if err == nil && out.Kind == OutcomeSuccess && out.Verification == nil {
			err = errors.New("success envelope without verification result")
		}
	case ModeSummarize:
		raw := env.Result
		if isEmpty(raw) {
			raw = env.Summarization
		}
		err = out.setSummary(raw)
		if err == nil && out.Kind == OutcomeSuccess && out.Summary == nil {
			err = errors.New("success envelope without summarization result")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Outcome) setVerification(raw json.RawMessage) error {
	if isEmpty(raw) {
		return nil
	}
	var v VerificationResult
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decoding verification result: %w", err)
	}
	o.Verification = &v
	o.VerificationRaw = raw
	return nil
}

func (o *Outcome) setSummary(raw json.RawMessage) error {
	if isEmpty(raw) {
		return nil
	}
	var s SummaryResult
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decoding summarization result: %w", err)
	}
	o.Summary = &s
	o.SummaryRaw = raw
	return nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
