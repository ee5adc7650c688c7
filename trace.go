package ttf

import "github.com/npillmayer/schuko/tracing"

// TraceKey is the key under which this package traces, select it in a schuko configuration to see decode progress.
const TraceKey = "tdewolff.ttf"

func tracer() tracing.Trace {
	return tracing.Select(TraceKey)
}
