// Package gateway exposes the motion engine to remote viewers over
// WebSocket: pose frames stream out, pointer events and commands come in.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/config"
	"github.com/normanking/avatarmotion/internal/engine"
)

// Controller is the engine surface the gateway drives.
type Controller interface {
	Snapshot() engine.PoseFrame
	PlayMotion(id string) bool
	PlayEmotionIdle(emotion string) bool
	ResetIdleTimer()
	SetEmotion(weights map[string]float32)
	SetAffection(v float32)
	SetPointer(nx, ny float32, inViewport bool)
	StartDrag(nx, ny float32) (string, bool)
	EndDrag()
	SetHobbyKeywords(kw []string)
}

// inbound is one message from a viewer.
type inbound struct {
	Type     string             `json:"type"`
	X        float32            `json:"x,omitempty"`
	Y        float32            `json:"y,omitempty"`
	In       bool               `json:"in,omitempty"`
	ID       string             `json:"id,omitempty"`
	Emotion  string             `json:"emotion,omitempty"`
	Value    float32            `json:"value,omitempty"`
	Weights  map[string]float32 `json:"weights,omitempty"`
	Keywords []string           `json:"keywords,omitempty"`
}

// outbound wraps a streamed pose frame.
type outbound struct {
	Type  string           `json:"type"`
	Frame engine.PoseFrame `json:"frame"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server accepts viewer connections and runs the broadcast loop.
type Server struct {
	cfg     config.GatewayConfig
	logger  zerolog.Logger
	events  *bus.EventBus
	control Controller

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

// NewServer builds a gateway over the controller.
func NewServer(cfg config.GatewayConfig, control Controller, events *bus.EventBus, logger zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger.With().Str("component", "gateway").Logger(),
		events:  events,
		control: control,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{Addr: s.cfg.ListenAddr, Handler: mux}

	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("gateway listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway serve: %w", err)
	}
	return nil
}

// broadcastLoop streams pose frames to every viewer at the configured rate.
func (s *Server) broadcastLoop(ctx context.Context) {
	fps := s.cfg.FrameRate
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			n := len(s.clients)
			s.mu.Unlock()
			if n == 0 {
				continue
			}
			payload, err := json.Marshal(outbound{Type: "pose", Frame: s.control.Snapshot()})
			if err != nil {
				continue
			}
			s.mu.Lock()
			for _, c := range s.clients {
				select {
				case c.send <- payload:
				default:
					// Slow viewer, drop the frame rather than stall.
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 8),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Info().Str("viewer", c.id).Msg("viewer connected")
	s.events.Publish(bus.Event{Type: bus.EventTypeViewerConnected, Data: map[string]any{"viewer": c.id}})

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	ping := s.cfg.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(c *client) {
	defer s.dropClient(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug().Err(err).Str("viewer", c.id).Msg("bad message")
			continue
		}
		s.dispatch(&msg)
	}
}

func (s *Server) dispatch(msg *inbound) {
	switch msg.Type {
	case "pointer":
		s.control.SetPointer(msg.X, msg.Y, msg.In)
	case "pointer_down":
		s.control.StartDrag(msg.X, msg.Y)
	case "pointer_up":
		s.control.EndDrag()
	case "play":
		s.control.PlayMotion(msg.ID)
	case "emotion":
		s.control.SetEmotion(msg.Weights)
	case "emotion_idle":
		s.control.PlayEmotionIdle(msg.Emotion)
	case "affection":
		s.control.SetAffection(msg.Value)
	case "keywords":
		s.control.SetHobbyKeywords(msg.Keywords)
	case "user_input":
		s.control.ResetIdleTimer()
	default:
		s.logger.Debug().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
	s.logger.Info().Str("viewer", c.id).Msg("viewer disconnected")
	s.events.Publish(bus.Event{Type: bus.EventTypeViewerDisconnected, Data: map[string]any{"viewer": c.id}})
}
