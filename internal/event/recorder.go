package event

import "sync"

// Recorder captures the events fired on matching channels, in firing order.
// It is the usual way for tests to assert on event causality.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	tap     Disposable
}

// NewRecorder starts recording events whose channel matches pattern.
func NewRecorder(b *Bus, pattern string) *Recorder {
	r := &Recorder{}
	r.tap = b.Tap(pattern, func(rec Record) {
		r.mu.Lock()
		r.records = append(r.records, rec)
		r.mu.Unlock()
	})
	return r
}

// Records returns a copy of everything recorded so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Names returns the channel names recorded so far.
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Channel
	}
	return out
}

// Count returns how many events were recorded on name.
func (r *Recorder) Count(name Name) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Channel == name {
			n++
		}
	}
	return n
}

// Last returns the most recent record on name.
func (r *Recorder) Last(name Name) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Channel == name {
			return r.records[i], true
		}
	}
	return Record{}, false
}

// Clear forgets what has been recorded.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// Dispose stops recording.
func (r *Recorder) Dispose() {
	r.tap.Dispose()
}

// PayloadsOf returns the payloads recorded on name that have type T.
func PayloadsOf[T any](r *Recorder, name Name) []T {
	var out []T
	for _, rec := range r.Records() {
		if rec.Channel != name {
			continue
		}
		if p, ok := rec.Payload.(T); ok {
			out = append(out, p)
		}
	}
	return out
}
