package telemetry

import (
	"fmt"
	"net/http"

	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var panicMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "panics_recovered",
}, []string{"entity", "msg"})

func LogPanic(entity string, message string) {
	panicMetric.WithLabelValues(entity, message).Inc()
}

// Recover turns a panic in next into a 500 response and counts it under entity.
func Recover(l log.Logger, entity string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				msg := fmt.Sprintf("%v", rec)
				l.Error("recovered from panic", "path", r.URL.Path, "panic", msg)
				LogPanic(entity, r.Method+" "+r.URL.Path)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
