package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/franckalain/foodlens/internal/analysis"
	"github.com/franckalain/foodlens/internal/capture"
	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/models"
	"github.com/franckalain/foodlens/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI is served from the same host
	},
}

// Options configures the UI bridge
type Options struct {
	Capture      capture.Options
	StepInterval time.Duration
	StaticDir    string
}

// Server bridges a browser UI to the capture, analysis and session
// components over a websocket. Each connection gets its own session.
type Server struct {
	analyzer analysis.Analyzer
	opts     Options
	router   *mux.Router
}

func New(analyzer analysis.Analyzer, opts Options) *Server {
	s := &Server{
		analyzer: analyzer,
		opts:     opts,
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket)
	if s.opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
	}
	return r
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on port until SIGINT or SIGTERM
func (s *Server) Start(port string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("listen: %w", err)
	case <-sigChan:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// client is the state behind one websocket connection
type client struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	session   *session.Session
	camera    *capture.UploadCamera
	adapter   *capture.Adapter
	processor *analysis.Processor
}

type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	camera := capture.NewUploadCamera()
	c := &client{
		conn:      conn,
		session:   session.New(),
		camera:    camera,
		adapter:   capture.NewAdapter(camera, s.opts.Capture),
		processor: analysis.NewProcessor(s.analyzer, s.opts.StepInterval),
	}

	log := logger.WithFields("client", uuid.New().String())
	log.Debug("Client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Messages are handled one at a time, so a capture that is still being
	// analyzed blocks the next one.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Error reading message", "error", err)
			}
			break
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("Error parsing message", "error", err)
			c.sendError("Invalid message format")
			continue
		}

		s.handleMessage(ctx, c, msg)
	}
	log.Debug("Client disconnected")
}

func (s *Server) handleMessage(ctx context.Context, c *client, msg message) {
	switch msg.Type {
	case "permission":
		s.handlePermission(c, msg.Data)
	case "capture":
		s.handleCapture(ctx, c, msg.Data)
	case "save_meal":
		s.handleSaveMeal(c, msg.Data)
	case "discard":
		if err := c.session.Discard(); err != nil {
			c.sendAppError(err)
			return
		}
		c.sendMeals()
	case "update_meal":
		s.handleUpdateMeal(c, msg.Data)
	case "get_meals":
		c.sendMeals()
	case "logout":
		c.session.Logout()
		c.camera.SetPermission(false)
		c.sendMeals()
	default:
		c.sendError("Unknown message type")
	}
}

func (s *Server) handlePermission(c *client, data json.RawMessage) {
	var req struct {
		Granted bool `json:"granted"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid permission data")
		return
	}
	c.camera.SetPermission(req.Granted)
	logger.Debug("Camera permission updated", "granted", req.Granted)
}

func (s *Server) handleCapture(ctx context.Context, c *client, data json.RawMessage) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Image == "" {
		c.sendError("Invalid image data")
		return
	}

	photo, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		logger.Debug("Error decoding image", "error", err)
		c.sendError("Invalid image format")
		return
	}

	if err := c.session.BeginCapture(); err != nil {
		c.sendAppError(err)
		return
	}

	c.camera.Put(photo)
	img, err := c.adapter.Capture(ctx)
	if err != nil {
		c.session.CaptureFailed()
		if apperrors.IsType(err, apperrors.ErrorTypePermission) {
			c.sendMessage("permission_required", nil)
			return
		}
		c.sendAppError(err)
		return
	}

	if err := c.session.BeginAnalysis(img); err != nil {
		c.sendAppError(err)
		return
	}

	result := c.processor.Run(ctx, img, func(step analysis.Step) {
		c.sendMessage("progress", step)
	})

	draft, err := c.session.CompleteAnalysis(result)
	if err != nil {
		c.sendAppError(err)
		return
	}
	c.sendMessage("analysis_result", map[string]any{"draft": draft})
}

func (s *Server) handleSaveMeal(c *client, data json.RawMessage) {
	var edit session.Edit
	if len(data) > 0 {
		if err := json.Unmarshal(data, &edit); err != nil {
			c.sendError("Invalid meal data")
			return
		}
	}

	if edit.Name != nil || edit.MealType != nil || edit.Override != nil {
		if _, err := c.session.EditDraft(edit); err != nil {
			c.sendAppError(err)
			return
		}
	}

	meal, err := c.session.SaveMeal()
	if err != nil {
		c.sendAppError(err)
		return
	}
	c.sendMessage("meal_saved", map[string]any{"meal": meal})
}

func (s *Server) handleUpdateMeal(c *client, data json.RawMessage) {
	var req struct {
		Meal models.MealEntity `json:"meal"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("Invalid meal data")
		return
	}
	if err := c.session.UpdateMeal(req.Meal); err != nil {
		c.sendAppError(err)
		return
	}
	c.sendMeals()
}

func (c *client) sendMeals() {
	c.sendMessage("meals", map[string]any{
		"items":   c.session.Meals(),
		"summary": c.session.Summary(),
	})
}

func (c *client) sendMessage(messageType string, data any) {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		logger.Warn("Error sending message", "type", messageType, "error", err)
	}
}

func (c *client) sendError(message string) {
	c.sendMessage("error", map[string]string{"message": message})
}

// sendAppError reports an error's user-facing message
func (c *client) sendAppError(err error) {
	if appErr, ok := apperrors.As(err); ok {
		logger.Debug("Request rejected", appErr.LogFields()...)
		c.sendError(appErr.Message)
		return
	}
	logger.Error("Request failed", "error", err)
	c.sendError("Internal error")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
