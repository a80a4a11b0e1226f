package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// NSQMessage is a message captured by NSQServer.
type NSQMessage struct {
	Topic string
	Body  []byte
}

// NSQServer mimics the nsqd HTTP /pub endpoint and records what it
// receives. Topics listed in FailTopics get a 500 response.
type NSQServer struct {
	mu         sync.Mutex
	messages   []NSQMessage
	FailTopics map[string]bool
	server     *httptest.Server
	URL        string
}

func NewNSQServer() *NSQServer {
	s := &NSQServer{
		FailTopics: make(map[string]bool),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	s.URL = s.server.URL
	return s
}

func (s *NSQServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/pub" || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	topic := r.URL.Query().Get("topic")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	fail := s.FailTopics[topic]
	if !fail {
		s.messages = append(s.messages, NSQMessage{Topic: topic, Body: body})
	}
	s.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("OK"))
}

// Messages returns a copy of everything published so far.
func (s *NSQServer) Messages() []NSQMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]NSQMessage, len(s.messages))
	copy(copied, s.messages)
	return copied
}

func (s *NSQServer) Close() {
	s.server.Close()
}
