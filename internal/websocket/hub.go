package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/internal/audio"
	"github.com/dishcast/dishcast/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Pipeline runs are bounded so a hung provider cannot pin a socket.
	pipelineTimeout = 3 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens at the edge proxy.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and routes captured audio into the
// content pipeline.
type Hub struct {
	// Registered clients keyed by connection id.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	pipeline *usecase.PipelineService
	analyzer *audio.Analyzer

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(pipeline *usecase.PipelineService, analyzer *audio.Analyzer, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		pipeline:   pipeline,
		analyzer:   analyzer,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("conn_id", client.connID),
				zap.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				// The send channel is never closed; a pipeline goroutine may
				// still try to deliver a result after the client is gone.
				// Closing done lets writePump and late senders bail out.
				close(client.done)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("conn_id", client.connID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// captureState buffers one in-flight capture session for a client.
type captureState struct {
	sessionID string
	start     *CaptureStartMessage
	startedAt time.Time
	chunks    []entities.AudioChunk
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Closed by the hub on unregister. Outbound sends select on this so a
	// slow pipeline run cannot write to a disconnected client.
	done chan struct{}

	connID string
	userID string

	validator *MessageValidator
	logger    *zap.Logger

	// In-flight capture session, nil when idle.
	capture *captureState

	mutex sync.Mutex
}

// HandleWebSocketWithAuth handles websocket requests with a pre-authenticated
// user id.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		done:      make(chan struct{}),
		connID:    uuid.NewString(),
		userID:    userID,
		validator: NewMessageValidator(),
		logger:    logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		parsed, err := c.validator.ValidateMessage(message)
		if err != nil {
			c.sendJSON(CreateErrorMessage("invalid_message", err.Error(), true))
			continue
		}

		c.handleMessage(parsed)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(data.Type, data.Payload); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(parsed interface{}) {
	switch msg := parsed.(type) {
	case *CaptureStartMessage:
		c.handleCaptureStart(msg)
	case *AudioChunkMessage:
		c.handleAudioChunk(msg)
	case *CaptureStopMessage:
		c.handleCaptureStop(msg)
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))
	}
}

func (c *Client) handleCaptureStart(msg *CaptureStartMessage) {
	c.mutex.Lock()
	if c.capture != nil {
		c.mutex.Unlock()
		c.sendJSON(CreateErrorMessage("capture_active", "a capture session is already active on this connection", true))
		return
	}
	state := &captureState{
		sessionID: uuid.NewString(),
		start:     msg,
		startedAt: time.Now(),
	}
	c.capture = state
	c.mutex.Unlock()

	c.logger.Info("Capture session started",
		zap.String("session_id", state.sessionID),
		zap.String("user_id", c.userID))

	c.sendJSON(&CaptureStartedMessage{
		BaseMessage: BaseMessage{Type: MessageTypeCaptureStarted, Timestamp: time.Now().Format(time.RFC3339)},
		SessionID:   state.sessionID,
	})
}

func (c *Client) handleAudioChunk(msg *AudioChunkMessage) {
	c.mutex.Lock()
	state := c.capture
	c.mutex.Unlock()

	if state == nil || state.sessionID != msg.SessionID {
		c.sendJSON(CreateErrorMessage("unknown_session", "no active capture session for this id", true))
		return
	}

	data, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		c.sendJSON(CreateErrorMessage("invalid_audio", "audio_data is not valid base64", true))
		return
	}

	quality := c.analyzeChunk(msg, data)

	c.mutex.Lock()
	state.chunks = append(state.chunks, entities.AudioChunk{
		Data:      data,
		Timestamp: time.Now(),
		Quality:   quality,
		Duration:  time.Since(state.startedAt).Seconds(),
	})
	c.mutex.Unlock()

	// Live warnings are advisory and never block capture.
	if quality.Level == entities.QualityPoor || quality.Level == entities.QualityUnusable {
		c.sendJSON(CreateQualityUpdateMessage(state.sessionID, quality))
	}

	if msg.IsFinal {
		c.finishCapture(state, false)
	}
}

func (c *Client) analyzeChunk(msg *AudioChunkMessage, pcm []byte) entities.AudioQuality {
	if msg.FrequencyData != "" {
		if bins, err := base64.StdEncoding.DecodeString(msg.FrequencyData); err == nil {
			return c.hub.analyzer.Analyze(bins)
		}
	}
	// Without a spectrum snapshot the time-domain bytes still expose gross
	// volume problems.
	return c.hub.analyzer.Analyze(pcm)
}

func (c *Client) handleCaptureStop(msg *CaptureStopMessage) {
	c.mutex.Lock()
	state := c.capture
	c.mutex.Unlock()

	if state == nil || state.sessionID != msg.SessionID {
		c.sendJSON(CreateErrorMessage("unknown_session", "no active capture session for this id", true))
		return
	}

	c.finishCapture(state, msg.Cancel)
}

func (c *Client) finishCapture(state *captureState, cancel bool) {
	c.mutex.Lock()
	c.capture = nil
	c.mutex.Unlock()

	if cancel {
		c.logger.Info("Capture session cancelled", zap.String("session_id", state.sessionID))
		return
	}

	elapsed := time.Since(state.startedAt)
	minDuration := entities.DefaultRecorderConfig().MinDuration
	if elapsed < minDuration {
		c.sendJSON(CreateErrorMessage("recording_too_short",
			"recording is below the minimum duration, please re-record", true))
		return
	}

	go c.runPipeline(state)
}

func (c *Client) runPipeline(state *captureState) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	result, err := c.hub.pipeline.Run(ctx, usecase.PipelineRequest{
		UserID:          c.userID,
		PhoneNumber:     state.start.PhoneNumber,
		Chunks:          state.chunks,
		SampleRate:      state.start.SampleRate,
		ChannelCount:    state.start.ChannelCount,
		Language:        state.start.Language,
		ContentType:     state.start.ContentType,
		Mood:            state.start.Mood,
		IncludeHashtags: true,
		IncludeEmojis:   true,
		Context:         state.start.Context,
		Platforms:       state.start.Platforms,
	})
	if err != nil {
		c.logger.Error("Pipeline run failed",
			zap.String("session_id", state.sessionID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("pipeline_failed", err.Error(), true))
		return
	}

	c.sendJSON(&PipelineResultMessage{
		BaseMessage: BaseMessage{Type: MessageTypePipelineResult, Timestamp: time.Now().Format(time.RFC3339)},
		SessionID:   state.sessionID,
		Result:      result,
	})
}

func (c *Client) sendJSON(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}
	select {
	case <-c.done:
		c.logger.Debug("Client gone, dropping message", zap.String("conn_id", c.connID))
		return
	default:
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message", zap.String("conn_id", c.connID))
	}
}
