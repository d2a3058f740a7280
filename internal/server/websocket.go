package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // cookie auth already ran in withSession
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string `json:"type"`
	Phase   string `json:"phase,omitempty"`
	Content string `json:"content,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// handleSubmitWS grades submissions over a websocket, streaming the
// pipeline phases so the client can show progress while the sandbox and
// the judge run.
func (s *Server) handleSubmitWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.log.Errorw("websocket read failed", "error", err)
			return
		}

		if msg.Type != "submit" {
			s.wsWriteJSON(conn, wsOutgoing{Type: "error", Content: "invalid message"})
			continue
		}

		result, err := s.svc.SubmitWithProgress(r.Context(), sess.Token, msg.Code, func(phase string) {
			s.wsWriteJSON(conn, wsOutgoing{Type: "phase", Phase: phase})
		})
		if err != nil {
			s.wsWriteJSON(conn, wsOutgoing{Type: "error", Content: gradingErrorMessage(err)})
			continue
		}

		s.wsWriteJSON(conn, wsOutgoing{Type: "result", Result: result})
	}
}

func (s *Server) wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Errorw("websocket marshal failed", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log.Errorw("websocket write failed", "error", err)
	}
}
