package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/auth"
	"github.com/dishcast/dishcast/internal/websocket"
	"github.com/dishcast/dishcast/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, pipeline *usecase.PipelineService, store repositories.ContentStore, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "dishcast-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Auth APIs
	v1.POST("/auth/login", func(c echo.Context) error {
		return ownerLogin(c, logger)
	})

	// Content APIs
	v1.POST("/content/voice", func(c echo.Context) error {
		return createVoiceContent(c, pipeline, logger)
	})
	v1.GET("/content/drafts", func(c echo.Context) error {
		return listDrafts(c, store, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, logger)
	})
}

// ownerLogin issues a restaurant owner token. The user id is derived from the
// email so repeat logins keep drafts under one account.
func ownerLogin(c echo.Context, logger *zap.Logger) error {
	var req LoginRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Email and password are required",
		})
	}

	userID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.Email)).String()

	token, err := auth.GenerateOwnerToken(userID, req.Email)
	if err != nil {
		logger.Error("Failed to generate owner token",
			zap.String("user_id", userID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Owner authenticated", zap.String("user_id", userID))

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		UserID:    userID,
	})
}

// createVoiceContent runs the full pipeline on a memo uploaded in one request.
func createVoiceContent(c echo.Context, pipeline *usecase.PipelineService, logger *zap.Logger) error {
	claims, ok := ownerFromRequest(c, logger)
	if !ok {
		return nil
	}

	var req VoiceContentRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind voice content request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if len(req.Chunks) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "At least one audio chunk is required",
		})
	}
	if req.SampleRate < 8000 || req.SampleRate > 48000 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_sample_rate",
			Message: "sample_rate must be between 8000 and 48000",
		})
	}
	if req.ChannelCount != 1 && req.ChannelCount != 2 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_channel_count",
			Message: "channel_count must be 1 or 2",
		})
	}
	if len(req.Platforms) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_platforms",
			Message: "At least one platform is required",
		})
	}
	if err := req.Context.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_context",
			Message: err.Error(),
		})
	}

	chunks := make([]entities.AudioChunk, 0, len(req.Chunks))
	for _, encoded := range req.Chunks {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_audio",
				Message: "Audio chunks must be base64 encoded",
			})
		}
		chunks = append(chunks, entities.AudioChunk{Data: data, Timestamp: time.Now()})
	}

	result, err := pipeline.Run(c.Request().Context(), usecase.PipelineRequest{
		UserID:           claims.UserID,
		PhoneNumber:      req.PhoneNumber,
		Chunks:           chunks,
		SampleRate:       req.SampleRate,
		ChannelCount:     req.ChannelCount,
		Language:         req.Language,
		ContentType:      req.ContentType,
		Mood:             req.Mood,
		ImageDescription: req.ImageDescription,
		IncludeHashtags:  req.IncludeHashtags,
		IncludeEmojis:    req.IncludeEmojis,
		Context:          req.Context,
		Platforms:        req.Platforms,
	})
	if err != nil {
		logger.Error("Pipeline run failed",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(pipelineErrorStatus(err), ErrorResponse{
			Error:   "pipeline_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// listDrafts returns the authenticated owner's drafts, newest first.
func listDrafts(c echo.Context, store repositories.ContentStore, logger *zap.Logger) error {
	claims, ok := ownerFromRequest(c, logger)
	if !ok {
		return nil
	}

	drafts, err := store.ListByUser(c.Request().Context(), claims.UserID)
	if err != nil {
		logger.Error("Failed to list drafts",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to load drafts",
		})
	}

	return c.JSON(http.StatusOK, DraftListResponse{Drafts: drafts})
}

// pipelineErrorStatus maps pipeline failures onto HTTP status codes. Input
// problems are the caller's fault; provider failures are ours.
func pipelineErrorStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrEmptyInput),
		domain.IsKind(err, domain.ErrQuality),
		domain.IsKind(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ownerFromRequest extracts and validates the bearer token, requiring an
// owner role. On rejection the error response is already written.
func ownerFromRequest(c echo.Context, logger *zap.Logger) (*auth.JWTClaims, bool) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
		return nil, false
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("Request rejected: invalid token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
		return nil, false
	}

	if claims.Role != "owner" && claims.Role != "admin" {
		logger.Warn("Request rejected: invalid role", zap.String("role", claims.Role))
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Owner token is required",
		})
		return nil, false
	}

	return claims, true
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	token := bearerToken(c)
	if token == "" {
		// Browsers cannot set headers on WebSocket dials, so allow the
		// token as a query parameter too.
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "owner" && claims.Role != "admin" {
		logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Owner token is required for WebSocket connections",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("user_id", claims.UserID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(hub, c, claims.UserID, logger)
}
