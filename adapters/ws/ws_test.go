package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/lvkbot/nlptree/nlp"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	svc := NewService(func() *nlp.Tree {
		tree := nlp.NewTree()
		tree.Add(nlp.Rule{
			ID:     1,
			Inputs: []string{"hello"},
			Output: nlp.NewCondOutputList(nlp.OutputEntry{Template: "hi there"}),
		})
		return tree
	})

	srv := httptest.NewServer(http.HandlerFunc(svc.Handler))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, url
}

func TestWebSocketRoundTrip(t *testing.T) {
	_, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %s", err)
	}
	defer conn.Close()

	reqJS, _ := json.Marshal(Request{Text: "hello"})
	if err := conn.WriteMessage(websocket.TextMessage, reqJS); err != nil {
		t.Fatalf("WriteMessage: %s", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %s", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if resp.Text != "hi there" {
		t.Errorf("got %q, want %q", resp.Text, "hi there")
	}
}

func TestWebSocketNoMatch(t *testing.T) {
	_, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %s", err)
	}
	defer conn.Close()

	reqJS, _ := json.Marshal(Request{Text: "goodbye"})
	if err := conn.WriteMessage(websocket.TextMessage, reqJS); err != nil {
		t.Fatalf("WriteMessage: %s", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %s", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if resp.Text != "" || resp.Error != "" {
		t.Errorf("got %+v, want an empty response", resp)
	}
}
