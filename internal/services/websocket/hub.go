package websocket

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/LichPham2511/AI-Camera-Fire-Smoke-Human-Detection/internal/logger"
)

// FrameMessage is the JSON payload sent to viewers for each annotated frame.
type FrameMessage struct {
	Source string `json:"source"`
	Frame  int    `json:"frame"`
	Image  string `json:"image"` // base64-encoded JPEG
}

// HubService fans annotated frames out to connected websocket viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(log *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					h.logger.Error("Error sending frame to viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastFrame encodes an annotated JPEG frame and queues it for viewers.
// Frames are dropped when the queue is full so the inference loop never
// blocks on slow viewers.
func (h *HubService) BroadcastFrame(jpeg []byte, source string, frameNumber int) {
	if h.GetClientCount() == 0 {
		return
	}

	message, err := json.Marshal(FrameMessage{
		Source: source,
		Frame:  frameNumber,
		Image:  base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		h.logger.Error("Error encoding frame message: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
