// Package ui serves the labeling surface to a local browser.
package ui

import (
	"context"
	"embed"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/menta2k/image-labeler/internal/app"
)

//go:embed www
var staticWWW embed.FS

// Server exposes an App over HTTP and a websocket for pointer events
type Server struct {
	Log        logs.Log
	app        *app.App
	router     *httprouter.Router
	wsUpgrader websocket.Upgrader
	httpServer *http.Server
}

// NewServer creates the server and its routes
func NewServer(log logs.Log, a *app.App) *Server {
	s := &Server{
		Log: log,
		app: a,
		wsUpgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.setupHttpRoutes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	handle := func(method, route string, h httprouter.Handle) {
		www.Handle(s.Log, router, method, route, h)
	}

	handle("GET", "/", s.httpIndex)
	handle("GET", "/api/state", s.httpState)
	handle("GET", "/api/frame", s.httpFrame)
	handle("GET", "/api/canvas", s.httpCanvas)

	handle("POST", "/api/folder", s.httpOpenFolder)
	handle("POST", "/api/images/:index", s.httpSelectImage)
	handle("POST", "/api/labels", s.httpAddLabel)
	handle("POST", "/api/labels/:index/select", s.httpSelectLabel)
	handle("DELETE", "/api/labels/selection", s.httpClearLabel)
	handle("POST", "/api/tool/:tool", s.httpSetTool)
	handle("POST", "/api/zoom", s.httpZoom)
	handle("DELETE", "/api/annotations/:index", s.httpDeleteAnnotation)
	handle("POST", "/api/annotations/:index/suggest", s.httpSuggest)
	handle("POST", "/api/save", s.httpSave)

	s.router = router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called. It returns nil at once
// if Shutdown already ran.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.Log.Infof("Listening on http://%v", ln.Addr())
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server. It is safe to call from another goroutine
// at any time, including before ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func parseIndex(params httprouter.Params) int {
	raw := params.ByName("index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		www.PanicBadRequestf("Invalid index '%v'", raw)
	}
	return idx
}
