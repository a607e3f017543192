// Package ws serves an nlp.Tree over WebSocket connections: one
// connection, one session, one tree (§10.3) — a tree is never shared
// across goroutines, so each accepted connection gets a fresh
// *nlp.Tree built from the same rules every other connection uses.
//
// Grounded on the teacher's cmd/mcrew service-ws.go: a gorilla/websocket
// Upgrader and a per-connection read loop. Each reply is written
// synchronously from that loop before the next message is read; there is
// no separate write goroutine or outbound buffer.
package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lvkbot/nlptree/nlp"
)

// Service serves one nlp.Tree-per-connection over WebSocket. NewTree is
// called once per accepted connection to build that connection's tree;
// a typical NewTree closes over a loaded rule pack and calls
// (*nlp.Tree).Add for each rule.
type Service struct {
	Debug   bool
	NewTree func() *nlp.Tree

	upgrader websocket.Upgrader
}

// NewService returns a Service that builds each connection's tree with
// newTree.
func NewService(newTree func() *nlp.Tree) *Service {
	return &Service{NewTree: newTree}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("ws.Service "+format, args...)
	}
}

// Request is the wire shape of a single query sent by the client.
type Request struct {
	Text string `json:"text"`
}

// Response is the wire shape of a single reply sent to the client.
type Response struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handler implements http.HandlerFunc, upgrading the connection and
// running one query/response exchange per inbound WebSocket message
// until the connection closes.
func (s *Service) Handler(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("upgrade error %s", err)
		return
	}
	defer c.Close()

	tree := s.NewTree()
	s.logf("connection from %s", c.RemoteAddr())

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			s.logf("read error %s", err)
			return
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			s.writeJSON(c, Response{Error: "bad request: " + err.Error()})
			continue
		}

		resp, _, ok := tree.GetResponse(req.Text)
		if !ok {
			s.writeJSON(c, Response{})
			continue
		}
		s.writeJSON(c, Response{Text: resp})
	}
}

func (s *Service) writeJSON(c *websocket.Conn, v interface{}) {
	js, err := json.Marshal(&v)
	if err != nil {
		s.logf("marshal error %s", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, js); err != nil {
		s.logf("write error %s", err)
	}
}
