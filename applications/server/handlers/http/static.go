package http

import (
	"net/http"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// serveFile writes the file at path with the given content type. Any read error is a 404.
func serveFile(w http.ResponseWriter, path string, contentType string, logger log.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		level.Warn(logger).Log("msg", "static file unavailable",
			"path", path,
			"err", err,
		)
		notFound(w, logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(data); err != nil {
		level.Error(logger).Log("msg", "can't write response", "err", err)
	}
}
