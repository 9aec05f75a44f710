package summarize

// Fallback is the summary text reported to callers when none is available.
const Fallback = "Summary generation failed"

// Result is either an available summary or the reason there is none.
type Result struct {
	text      string
	reason    string
	available bool
}

func Available(text string) Result {
	return Result{text: text, available: true}
}

func Unavailable(reason string) Result {
	return Result{reason: reason}
}

func (r Result) IsAvailable() bool { return r.available }

// Text is the summary, empty when unavailable.
func (r Result) Text() string { return r.text }

// Reason explains an unavailable summary.
func (r Result) Reason() string { return r.reason }

// OrFallback returns the summary text, or fallback when unavailable.
func (r Result) OrFallback(fallback string) string {
	if r.available {
		return r.text
	}
	return fallback
}

func (r Result) String() string {
	if r.available {
		return r.text
	}
	return "unavailable: " + r.reason
}
