package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

/*
Broker fans task snapshots out to subscribed HTTP clients. Each event is a
single-line SSE message of the form:

data: {json}\n\n

Slow clients lose events rather than slowing the engine down: the stream is
a reflection of task state, not the source of truth, and a client can always
recover by reading the task back over REST.
*/
type Broker struct {
	mu       sync.RWMutex
	clients  map[chan []byte]struct{}
	closed   bool
	testMode bool
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan []byte]struct{}),
	}
}

// NewTestBroker shortens the heartbeat interval so tests observe it quickly.
func NewTestBroker() *Broker {
	return &Broker{
		clients:  make(map[chan []byte]struct{}),
		testMode: true,
	}
}

/*
Subscribe upgrades the HTTP connection to an SSE stream and blocks until the
client disconnects. Use from an HTTP handler:

broker.Subscribe(w, r)
*/
func (broker *Broker) Subscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)

	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []byte, 8)
	broker.mu.Lock()

	if broker.closed {
		broker.mu.Unlock()
		http.Error(w, "broker closed", http.StatusGone)
		return
	}

	broker.clients[ch] = struct{}{}
	broker.mu.Unlock()

	// heartbeat ticker to keep connections alive through proxies.
	tickerInterval := 25 * time.Second

	if broker.testMode {
		tickerInterval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			broker.remove(ch)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ticker.C:
			// comment heartbeat
			_, _ = w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()
		}
	}
}

/*
Broadcast marshals v to JSON and sends it to all connected clients. A client
whose buffer is full is skipped.
*/
func (broker *Broker) Broadcast(v any) error {
	msg, err := json.Marshal(v)

	if err != nil {
		return err
	}

	broker.mu.RLock()
	defer broker.mu.RUnlock()

	if broker.closed {
		return nil
	}

	for ch := range broker.clients {
		select {
		case ch <- msg:
		default:
			// slow client, drop the message instead of blocking.
		}
	}

	return nil
}

// ClientCount reports how many subscribers are currently connected.
func (broker *Broker) ClientCount() int {
	broker.mu.RLock()
	defer broker.mu.RUnlock()
	return len(broker.clients)
}

/*
Close disconnects all clients and prevents further subscriptions.
*/
func (broker *Broker) Close() {
	broker.mu.Lock()
	defer broker.mu.Unlock()

	if broker.closed {
		return
	}

	broker.closed = true

	for ch := range broker.clients {
		close(ch)
	}

	broker.clients = map[chan []byte]struct{}{}
}

func (broker *Broker) remove(ch chan []byte) {
	broker.mu.Lock()

	if _, ok := broker.clients[ch]; ok {
		delete(broker.clients, ch)
		close(ch)
	}

	broker.mu.Unlock()
}
