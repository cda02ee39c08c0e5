package analytics

import "context"

// Recorder accepts analytics events on a best-effort basis. Implementations
// must not block and have no way to report failure to the caller, so
// recording can never affect a billing state transition.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Event)

func (f RecorderFunc) Record(ctx context.Context, e Event) { f(ctx, e) }
