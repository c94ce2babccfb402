package recognition

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/franckalain/foodlens/internal/errors"
	"github.com/franckalain/foodlens/internal/logger"
)

// AnalyzeRequest is the body of POST /analyze-food
type AnalyzeRequest struct {
	Image string `json:"image"`
}

// Handler serves the recognition endpoint
type Handler struct {
	service *Service
	apiKey  string
	errors  *apperrors.Handler
}

// NewHandler creates a handler. An empty apiKey disables the key check.
func NewHandler(service *Service, apiKey string) *Handler {
	return &Handler{
		service: service,
		apiKey:  apiKey,
		errors:  apperrors.NewHandler(logger.GetLogger()),
	}
}

// SetupRouter registers the recognition routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	r.GET("/health", h.Health)
	r.POST("/analyze-food", h.RequireAPIKey(), h.AnalyzeFood)

	return r
}

// CORS allows browser clients on any origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request with its status and latency
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// RequireAPIKey rejects requests whose x-api-key header does not match
func (h *Handler) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("x-api-key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}

// Health reports that the service is up
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// AnalyzeFood stores the posted image and returns its nutrition estimate
func (h *Handler) AnalyzeFood(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := h.service.Recognize(c.Request.Context(), req.Image)
	if err != nil {
		h.errors.Handle(c.Request.Context(), err)

		status, message := http.StatusInternalServerError, processingFailedMsg
		if appErr, ok := apperrors.As(err); ok {
			status, message = appErr.HTTPStatus(), appErr.Message
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, result)
}
