package telemetry

import (
	"net/http"
	"net/http/pprof"
)

const debugPath = "/debug/pprof/"

// profiles served through pprof.Handler
var profiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// RegisterDebugHandlers adds the pprof routes to mux. The metrics endpoint
// calls it when debug is enabled.
func RegisterDebugHandlers(mux *http.ServeMux) {
	mux.HandleFunc(debugPath, pprof.Index)
	mux.HandleFunc(debugPath+"cmdline", pprof.Cmdline)
	mux.HandleFunc(debugPath+"profile", pprof.Profile)
	mux.HandleFunc(debugPath+"symbol", pprof.Symbol)
	mux.HandleFunc(debugPath+"trace", pprof.Trace)
	for _, name := range profiles {
		mux.Handle(debugPath+name, pprof.Handler(name))
	}
}
