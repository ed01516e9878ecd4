package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEvent is returned when decoding a name the bus does not know
var ErrUnknownEvent = errors.New("events: unknown event")

// Envelope is the transport framing of an event
type Envelope struct {
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emitted_at"`
}

// Encode frames e for a transport
func Encode(e Event, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", e.EventName(), err)
	}
	return json.Marshal(Envelope{Name: e.EventName(), Payload: payload, EmittedAt: at.UTC()})
}

// Decode parses a framed event back into its typed variant
func Decode(b []byte) (Event, Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, env, fmt.Errorf("events: decode envelope: %w", err)
	}

	var (
		evt Event
		err error
	)
	switch {
	case env.Name == NameAnalysisRequested:
		evt, err = decodeAs[AnalysisRequested](env.Payload)
	case env.Name == NameAnalysisFinished:
		evt, err = decodeAs[AnalysisFinished](env.Payload)
	case env.Name == NameAnalysisFailed:
		evt, err = decodeAs[AnalysisFailed](env.Payload)
	case IsSubmissionBatch(env.Name):
		var sb SubmissionBatchCreated
		sb, err = decodeAs[SubmissionBatchCreated](env.Payload)
		if err == nil && SubmissionBatchName(sb.Period) != env.Name {
			err = fmt.Errorf("events: period %q does not match %s", sb.Period, env.Name)
		}
		evt = sb
	default:
		return nil, env, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Name)
	}
	if err != nil {
		return nil, env, err
	}
	return evt, env, nil
}

func decodeAs[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("events: decode payload: %w", err)
	}
	return v, nil
}
