package daemon

import (
	"net/http"
	"os"
)

func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": a.Version,
		"pid":     os.Getpid(),
	})
}
