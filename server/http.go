package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/goto/changelogger/internal/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second

	timeoutMessage = `{"error":"request timed out"}`
)

type routeRegistrar interface {
	Register(mux *http.ServeMux)
}

// newHTTPServer mounts the api handlers behind the tracing, recovery, timeout and cors
// middlewares. Metrics are served outside the timeout.
func newHTTPServer(l log.Logger, addr string, requestTimeout time.Duration, handlers ...routeRegistrar) *http.Server {
	api := http.NewServeMux()
	for _, h := range handlers {
		h.Register(api)
	}

	var apiHandler http.Handler = api
	if requestTimeout > 0 {
		apiHandler = http.TimeoutHandler(apiHandler, requestTimeout, timeoutMessage)
	}
	apiHandler = telemetry.Recover(l, "http", apiHandler)
	apiHandler = otelhttp.NewHandler(apiHandler, "api")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", allowCORS(apiHandler))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
