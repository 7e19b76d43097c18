package server

import (
	"net/http"

	"soul-hq/gateway/pkg/dto"
)

// SnapshotPath serves the cache export.
const SnapshotPath = "/admin/snapshot"

// Exporter produces a copy of the current configuration.
type Exporter interface {
	Export() *dto.Snapshot
}

// SnapshotHandler writes the exported configuration as JSON.
func SnapshotHandler(e Exporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, e.Export())
	}
}
