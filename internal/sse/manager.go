package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"inbox-dashboard/internal/logger"
)

const clientBuffer = 10

// SSEManager fans dashboard events out to every connected client.
type SSEManager struct {
	clients    map[chan []byte]bool
	clientsMux sync.RWMutex
	closed     bool

	logger *logger.Logger
}

// Event is the JSON payload written on each "data:" line.
type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time int64       `json:"time"`
}

func NewSSEManager(logger *logger.Logger) *SSEManager {
	return &SSEManager{
		clients: make(map[chan []byte]bool),
		logger:  logger,
	}
}

// AddClient registers a new connection. The returned channel is closed by
// RemoveClient or Close.
func (s *SSEManager) AddClient() chan []byte {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	channel := make(chan []byte, clientBuffer)
	if s.closed {
		close(channel)
		return channel
	}
	s.clients[channel] = true

	s.logger.Debug("Added SSE client, total clients:", len(s.clients))
	return channel
}

func (s *SSEManager) RemoveClient(channel chan []byte) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if _, exists := s.clients[channel]; !exists {
		return
	}
	delete(s.clients, channel)
	close(channel)

	s.logger.Debug("Removed SSE client, remaining clients:", len(s.clients))
}

// Broadcast sends an event to every client. Clients whose buffer is full miss
// the event rather than stall the sender.
func (s *SSEManager) Broadcast(eventType string, data interface{}) {
	event := Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
		Time: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast event:", err)
		return
	}

	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	for channel := range s.clients {
		select {
		case channel <- jsonData:
		default:
			s.logger.Warn("Dropping", eventType, "event for slow SSE client")
		}
	}
}

// Close disconnects every client; later AddClient calls get a closed channel.
func (s *SSEManager) Close() {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	s.closed = true
	for channel := range s.clients {
		close(channel)
		delete(s.clients, channel)
	}
}

func (s *SSEManager) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}
