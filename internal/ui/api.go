package ui

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"

	"github.com/menta2k/image-labeler/internal/app"
	"github.com/menta2k/image-labeler/pkg/suggest"
	"github.com/menta2k/image-labeler/pkg/types"
)

const maxRequestBody = 64 * 1024

// response is returned by every action. Failures are reported as a dialog
// rather than an HTTP error so the page can show them as message boxes.
type response struct {
	State      app.State           `json:"state"`
	Dialog     *app.Dialog         `json:"dialog,omitempty"`
	Annotation *types.Annotation   `json:"annotation,omitempty"`
	Suggestion *suggest.Suggestion `json:"suggestion,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		s.Log.Warnf("Action failed: %v", err)
	}
	www.SendJSON(w, &response{State: s.app.State(), Dialog: app.DialogFor(err)})
}

func (s *Server) httpIndex(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	page, err := staticWWW.ReadFile("www/index.html")
	www.Check(err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) httpState(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.app.State())
}

func (s *Server) httpFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	data, contentType, err := s.app.Frame()
	if err != nil {
		www.SendError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) httpOpenFolder(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := struct {
		Path string `json:"path"`
	}{}
	www.ReadJSON(w, r, &req, maxRequestBody)
	_, err := s.app.OpenFolder(req.Path)
	s.respond(w, err)
}

func (s *Server) httpSelectImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	_, err := s.app.SelectImage(parseIndex(params))
	s.respond(w, err)
}

func (s *Server) httpAddLabel(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := struct {
		Label string `json:"label"`
	}{}
	www.ReadJSON(w, r, &req, maxRequestBody)
	s.respond(w, s.app.AddLabel(req.Label))
}

func (s *Server) httpSelectLabel(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.respond(w, s.app.SelectLabel(parseIndex(params)))
}

func (s *Server) httpClearLabel(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.app.ClearLabel()
	s.respond(w, nil)
}

func (s *Server) httpSetTool(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if err := s.app.SetTool(params.ByName("tool")); err != nil {
		www.PanicBadRequestf("%v", err)
	}
	s.respond(w, nil)
}

func (s *Server) httpZoom(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	req := struct {
		Delta float64 `json:"delta"`
	}{}
	www.ReadJSON(w, r, &req, maxRequestBody)
	s.respond(w, s.app.Zoom(req.Delta))
}

func (s *Server) httpDeleteAnnotation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.respond(w, s.app.DeleteAnnotation(parseIndex(params)))
}

func (s *Server) httpSuggest(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	suggestion, err := s.app.Suggest(r.Context(), parseIndex(params))
	if err != nil {
		s.respond(w, err)
		return
	}
	www.SendJSON(w, &response{State: s.app.State(), Suggestion: suggestion})
}

func (s *Server) httpSave(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	file, err := s.app.Save()
	if err != nil {
		s.respond(w, err)
		return
	}
	www.SendJSON(w, &response{State: s.app.State(), Dialog: app.SavedDialog(file)})
}
