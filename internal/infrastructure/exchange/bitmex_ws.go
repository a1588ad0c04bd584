package exchange

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// instrumentStream maintains one realtime connection and fans out
// instrument updates to registered callbacks.
type instrumentStream struct {
	url string

	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(symbol string, lastPrice float64)
}

func newInstrumentStream(url string) *instrumentStream {
	return &instrumentStream{url: url}
}

func (s *instrumentStream) onUpdate(cb func(symbol string, lastPrice float64)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

func (s *instrumentStream) subscribe(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", s.url, err)
		}
		s.conn = conn
		go s.readLoop(conn)
	}

	args := make([]string, len(symbols))
	for i, symbol := range symbols {
		args[i] = "instrument:" + symbol
	}
	return s.conn.WriteJSON(map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	})
}

func (s *instrumentStream) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Println("instrument stream read error:", err)
			return
		}

		var event struct {
			Table string `json:"table"`
			Data  []struct {
				Symbol    string  `json:"symbol"`
				LastPrice float64 `json:"lastPrice"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if event.Table != "instrument" {
			continue
		}

		s.mu.Lock()
		callbacks := make([]func(string, float64), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, item := range event.Data {
			if item.LastPrice == 0 {
				continue
			}
			for _, cb := range callbacks {
				cb(item.Symbol, item.LastPrice)
			}
		}
	}
}

func (s *instrumentStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
