package v1beta1

import (
	"encoding/json"
	"net/http"

	"github.com/goto/salt/log"
)

const healthMessage = "Server is running!"

type VersionHandler struct {
	l       log.Logger
	version string
}

type versionResponse struct {
	Server string `json:"server"`
}

type healthResponse struct {
	Message string `json:"message"`
}

func (h VersionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/test", h.Health)
	mux.HandleFunc("GET /api/version", h.Version)
}

// Health reports that the server accepts requests.
func (VersionHandler) Health(w http.ResponseWriter, _ *http.Request) {
	write(w, healthResponse{Message: healthMessage})
}

func (h VersionHandler) Version(w http.ResponseWriter, r *http.Request) {
	h.l.Debug("version requested", "client", r.URL.Query().Get("client"))
	write(w, versionResponse{Server: h.version})
}

func write(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func NewVersionHandler(l log.Logger, version string) *VersionHandler {
	return &VersionHandler{
		l:       l,
		version: version,
	}
}
