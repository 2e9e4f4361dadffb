package ui

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/menta2k/image-labeler/internal/app"
	"github.com/menta2k/image-labeler/pkg/surface"
	"github.com/menta2k/image-labeler/pkg/types"
)

// pointerEvent is sent by the page for every canvas pointer event
type pointerEvent struct {
	Type string  `json:"type"` // down, move, up
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// canvasReply answers one pointerEvent
type canvasReply struct {
	Type        string            `json:"type"` // provisional, committed, ignored, error
	Provisional *surface.Shape    `json:"provisional,omitempty"`
	Annotation  *types.Annotation `json:"annotation,omitempty"`
	State       *app.State        `json:"state,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// httpCanvas streams pointer events over a websocket. Each event gets
// exactly one reply, in order.
func (s *Server) httpCanvas(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Canvas websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	for {
		var ev pointerEvent
		if err := c.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Log.Infof("Canvas websocket closed: %v", err)
			}
			return
		}
		if err := c.WriteJSON(s.handlePointer(ev)); err != nil {
			s.Log.Warnf("Canvas websocket write failed: %v", err)
			return
		}
	}
}

func (s *Server) handlePointer(ev pointerEvent) canvasReply {
	p := types.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case "down":
		shape, ok := s.app.PointerDown(p)
		if !ok {
			return canvasReply{Type: "ignored"}
		}
		return canvasReply{Type: "provisional", Provisional: &shape}
	case "move":
		shape, ok := s.app.PointerMove(p)
		if !ok {
			return canvasReply{Type: "ignored"}
		}
		return canvasReply{Type: "provisional", Provisional: &shape}
	case "up":
		ann, ok := s.app.PointerUp(p)
		if !ok {
			return canvasReply{Type: "ignored"}
		}
		st := s.app.State()
		return canvasReply{Type: "committed", Annotation: &ann, State: &st}
	default:
		return canvasReply{Type: "error", Error: "unknown event type: " + ev.Type}
	}
}
