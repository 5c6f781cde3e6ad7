package pipeline

import "time"

// State tracks one pipeline run. Succeeded and Exhausted are terminal; a run
// that was cancelled mid-way stays InProgress.
type State int32

const (
	StateNotStarted State = iota
	StateInProgress
	StateSucceeded
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Payload is one decoded QR symbol plus the provenance of the candidate that
// produced it. Payload bytes may be sensitive (tokens, credentials, wallet
// seeds travel by QR); call Wipe once the content is no longer needed.
type Payload struct {
	Data []byte
	// Scale is the variant factor that produced the decode.
	Scale float64
	// Candidate names the enhancement step ("equalized", "threshold",
	// "threshold-inverted") that produced the decode.
	Candidate string
}

// Text returns the payload as a string. The returned string is a copy and is
// not covered by Wipe.
func (p *Payload) Text() string {
	return string(p.Data)
}

// Wipe overwrites the payload bytes before releasing them.
func (p *Payload) Wipe() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	p.Data = nil
}

// Result is the outcome of a successful pipeline run: at least one payload,
// deduplicated by content, in the order the variants found them.
type Result struct {
	State           State
	Payloads        []Payload
	CandidatesTried int
	Elapsed         time.Duration
}

// Wipe clears every payload held by the result.
func (r *Result) Wipe() {
	for i := range r.Payloads {
		r.Payloads[i].Wipe()
	}
	r.Payloads = nil
}
