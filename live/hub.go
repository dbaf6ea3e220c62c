package live

import (
	"sync"

	"github.com/gorilla/websocket"

	"tripweaver/access"
)

// Client is one websocket connection inside an itinerary room.
type Client struct {
	Conn    *websocket.Conn
	Send    chan []byte
	Room    string
	UserID  string
	ShareID string
	Role    access.Role
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type directMsg struct {
	To   *Client
	Data []byte
}

// Hub fans messages out to every client in a room. Rooms are itinerary ids.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	direct     chan directMsg
	stop       chan struct{}
	done       chan struct{}
	once       sync.Once
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		direct:     make(chan directMsg),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					// slow consumer
					h.remove(c)
				}
			}
			h.mu.Unlock()

		case m := <-h.direct:
			h.mu.Lock()
			if h.rooms[m.To.Room][m.To] {
				select {
				case m.To.Send <- m.Data:
				default:
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					close(c.Send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// remove drops c from its room and closes its send channel. Caller holds mu.
func (h *Hub) remove(c *Client) {
	conns := h.rooms[c.Room]
	if conns == nil || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Stop closes every client and ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Register adds c to its room. It reports false once the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stop:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stop:
	}
}

// Broadcast queues data for every client in room.
func (h *Hub) Broadcast(room string, data []byte) {
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	case <-h.stop:
	}
}

// Send queues data for c alone. It is dropped if c has left or is not keeping up.
func (h *Hub) Send(c *Client, data []byte) {
	select {
	case h.direct <- directMsg{To: c, Data: data}:
	case <-h.stop:
	}
}

func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
