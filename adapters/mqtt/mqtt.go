// Package mqtt serves an nlp.Tree to MQTT clients: messages published
// to a request topic are answered on a per-session reply topic, with
// one nlp.Tree per session (§10.3) — a tree is never shared across
// goroutines, and paho's client dispatches message handlers
// concurrently, so the session map needs its own lock the way the
// teacher's crew.Crew guards its machine map with an embedded
// sync.RWMutex.
package mqtt

import (
	"encoding/json"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lvkbot/nlptree/nlp"
)

// Message is the wire shape exchanged over MQTT: a client publishes a
// Message{Session, Text} to the request topic and receives a
// Message{Session, Text} back on ReplyTopicPrefix+Session, with Text
// empty when nothing matched. Handler never sets Error; a request it
// cannot decode, or one with no session, gets no reply.
type Message struct {
	Session string `json:"session"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Service holds one nlp.Tree per MQTT session.
type Service struct {
	sync.RWMutex

	Debug bool

	RequestTopic    string
	ReplyTopicPrefix string
	QoS              byte

	NewTree func() *nlp.Tree

	trees map[string]*nlp.Tree
}

// NewService returns a Service that builds each session's tree with
// newTree, publishing replies under replyTopicPrefix+session.
func NewService(requestTopic, replyTopicPrefix string, newTree func() *nlp.Tree) *Service {
	return &Service{
		RequestTopic:     requestTopic,
		ReplyTopicPrefix: replyTopicPrefix,
		NewTree:          newTree,
		trees:            make(map[string]*nlp.Tree),
	}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("mqtt.Service "+format, args...)
	}
}

// treeFor returns the session's tree, creating one on first use.
func (s *Service) treeFor(session string) *nlp.Tree {
	s.RLock()
	tree, have := s.trees[session]
	s.RUnlock()
	if have {
		return tree
	}

	s.Lock()
	defer s.Unlock()
	if tree, have = s.trees[session]; have {
		return tree
	}
	tree = s.NewTree()
	s.trees[session] = tree
	return tree
}

// EndSession drops the tree for session, freeing whatever state it
// held.
func (s *Service) EndSession(session string) {
	s.Lock()
	delete(s.trees, session)
	s.Unlock()
}

// Handler returns the mqtt.MessageHandler to subscribe to RequestTopic.
func (s *Service) Handler() mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		var req Message
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			s.logf("bad request payload: %s", err)
			return
		}
		if req.Session == "" {
			s.logf("request with no session, dropped")
			return
		}

		tree := s.treeFor(req.Session)
		resp, _, ok := tree.GetResponse(req.Text)

		reply := Message{Session: req.Session}
		if ok {
			reply.Text = resp
		}

		js, err := json.Marshal(&reply)
		if err != nil {
			s.logf("marshal error %s", err)
			return
		}

		topic := s.ReplyTopicPrefix + req.Session
		token := client.Publish(topic, s.QoS, false, js)
		token.Wait()
		if err := token.Error(); err != nil {
			s.logf("publish error %s", err)
		}
	}
}

// Subscribe registers Handler against RequestTopic on client.
func (s *Service) Subscribe(client mqtt.Client) error {
	token := client.SubscribeMultiple(
		map[string]byte{s.RequestTopic: s.QoS},
		func(c mqtt.Client, msg mqtt.Message) { s.Handler()(c, msg) },
	)
	token.Wait()
	return token.Error()
}
