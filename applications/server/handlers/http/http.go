package http

import (
	"net/http"

	"github.com/go-kit/log"

	"github.com/donmikel/lanshare/applications/server"
	"github.com/donmikel/lanshare/applications/server/config"
)

func NewHTTPServer(conf config.Api, fileService server.FileService, opts Options, logger log.Logger) *http.Server {
	mux := NewRouter(fileService, opts, logger)
	return &http.Server{
		Addr:    conf.HTTPAddr,
		Handler: mux,
	}
}
