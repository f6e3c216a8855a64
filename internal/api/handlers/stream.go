package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"parcel-sim-service/internal/api/dto"
	"parcel-sim-service/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The stream is read-only state for the map layer; cross-origin
	// viewers are fine.
	CheckOrigin: func(*http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// StreamHandler pushes a state snapshot over a websocket on every store
// mutation. Consumers that fall behind receive the latest snapshot, not
// every intermediate one.
type StreamHandler struct {
	Store *store.Store
}

func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := h.Store.Subscribe()
	defer cancel()

	// Drain reads so close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.Store.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case snap := <-snapshots:
			if err := h.write(conn, snap); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, snap store.State) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(dto.FromState(snap))
}
