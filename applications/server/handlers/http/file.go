package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/donmikel/lanshare/applications/server"
	"github.com/donmikel/lanshare/applications/server/domain"
	"github.com/donmikel/lanshare/applications/server/upload"
)

const (
	contentTypeHTML   = "text/html; charset=utf-8"
	contentTypeText   = "text/plain; charset=utf-8"
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"

	downloadPrefix = "/uploads/"
	deletePrefix   = "/api/files/"
)

// Options carries the per-deployment settings of the router.
type Options struct {
	// IndexPath is the absolute path of the page served at "/".
	IndexPath string
	// MaxUploadBytes limits the upload body size, 0 means unlimited.
	MaxUploadBytes int64
}

type route struct {
	method string
	path   string
	prefix bool
	handle http.HandlerFunc
}

// NewRouter dispatches requests through a fixed route table. Routes are matched in order:
// exact paths first, then prefixes; anything else is answered with 404.
func NewRouter(svc server.FileService, opts Options, logger log.Logger) http.Handler {
	routes := []route{
		{method: http.MethodGet, path: "/", handle: IndexHandler(opts.IndexPath, logger)},
		{method: http.MethodGet, path: "/api/files", handle: ListFilesHandler(svc, logger)},
		{method: http.MethodGet, path: downloadPrefix, prefix: true, handle: GetFileHandler(svc, logger)},
		{method: http.MethodPost, path: "/upload", handle: PutFileHandler(svc, opts.MaxUploadBytes, logger)},
		{method: http.MethodDelete, path: deletePrefix, prefix: true, handle: DeleteFileHandler(svc, logger)},
	}

	// unclean paths reach the handlers as sent; names are reduced to their basename there
	r := mux.NewRouter().SkipClean(true)
	for _, rt := range routes {
		var m *mux.Route
		if rt.prefix {
			m = r.PathPrefix(rt.path)
		} else {
			m = r.Path(rt.path)
		}
		m.Methods(rt.method).HandlerFunc(rt.handle)
	}

	r.NotFoundHandler = notFoundHandler(logger)
	r.MethodNotAllowedHandler = notFoundHandler(logger)

	var h http.Handler = r
	h = loggingMiddleware(h, logger)
	h = requestIDMiddleware(h)
	h = corsMiddleware(h)

	return h
}

func IndexHandler(indexPath string, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveFile(w, indexPath, contentTypeHTML, logger)
	}
}

func ListFilesHandler(svc server.FileService, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := svc.ListFiles(r.Context())
		if err != nil {
			level.Error(logger).Log("msg", "ListFiles error",
				"err", err,
			)
			writeJSON(w, http.StatusNotFound, map[string]string{"error": domain.ErrDirectoryUnavailable.Error()}, logger)
			return
		}

		writeJSON(w, http.StatusOK, names, logger)
	}
}

func GetFileHandler(svc server.FileService, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, downloadPrefix)

		body, err := svc.GetFile(r.Context(), name)
		if err != nil {
			level.Debug(logger).Log("msg", "GetFile error",
				"err", err,
			)
			notFound(w, logger)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", contentTypeBinary)
		w.WriteHeader(http.StatusOK)

		if _, err = io.Copy(w, body); err != nil {
			level.Error(logger).Log("msg", "error body copy", "err", err)
			return
		}
	}
}

// PutFileHandler buffers the whole request body before parsing it; nothing is stored
// for an aborted or malformed request.
func PutFileHandler(svc server.FileService, maxBytes int64, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boundary, err := upload.Boundary(r.Header.Get("Content-Type"))
		if err != nil {
			level.Warn(logger).Log("msg", "upload rejected",
				"content_type", r.Header.Get("Content-Type"),
				"err", err,
			)
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		level.Info(logger).Log("msg", "receiving upload",
			"content_length", r.ContentLength,
		)

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			level.Error(logger).Log("msg", "upload body read error",
				"err", err,
			)

			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeErr(w, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge, logger)
				return
			}
			writeErr(w, errors.New("incomplete request body"), http.StatusBadRequest, logger)
			return
		}

		up, err := svc.PutFile(r.Context(), boundary, body)
		if err != nil {
			level.Error(logger).Log("msg", "PutFile error",
				"err", err,
			)

			if isParseError(err) {
				writeErr(w, err, http.StatusBadRequest, logger)
				return
			}
			writeErr(w, domain.ErrWriteFailure, http.StatusInternalServerError, logger)
			return
		}

		writeText(w, http.StatusOK, fmt.Sprintf("saved %s", up.Name), logger)
	}
}

func DeleteFileHandler(svc server.FileService, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, deletePrefix)

		err := svc.DeleteFile(r.Context(), name)
		if err != nil {
			level.Error(logger).Log("msg", "DeleteFile error",
				"err", err,
			)

			if errors.Is(err, domain.ErrNotFound) {
				writeErr(w, domain.ErrNotFound, http.StatusNotFound, logger)
				return
			}
			writeErr(w, domain.ErrDeleteFailure, http.StatusNotFound, logger)
			return
		}

		writeText(w, http.StatusOK, fmt.Sprintf("deleted %s", upload.Basename(name)), logger)
	}
}

func isParseError(err error) bool {
	return errors.Is(err, domain.ErrMissingBoundary) ||
		errors.Is(err, domain.ErrMalformedBody) ||
		errors.Is(err, domain.ErrMissingFilename)
}

func notFoundHandler(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notFound(w, logger)
	}
}

func notFound(w http.ResponseWriter, logger log.Logger) {
	writeText(w, http.StatusNotFound, "Not Found", logger)
}

func writeErr(w http.ResponseWriter, err error, status int, logger log.Logger) {
	writeText(w, status, err.Error(), logger)
}

func writeText(w http.ResponseWriter, status int, text string, logger log.Logger) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		level.Error(logger).Log("msg", "can't write response", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger log.Logger) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(logger).Log("msg", "can't write response", "err", err)
	}
}
