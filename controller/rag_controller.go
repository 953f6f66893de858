package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itish2003/simplybot/models"
	"github.com/itish2003/simplybot/services"
)

// RAGController serves the chat and audio endpoints.
type RAGController struct {
	ragService  services.RAGService
	speech      services.SpeechService
	audioMaxAge time.Duration
}

func NewRAGController(service services.RAGService, speech services.SpeechService, audioMaxAge time.Duration) *RAGController {
	return &RAGController{
		ragService:  service,
		speech:      speech,
		audioMaxAge: audioMaxAge,
	}
}

// GetMoreInformation handles POST /get_more_information.
func (c *RAGController) GetMoreInformation(ctx *gin.Context) {
	var req models.GetMoreInformationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	answer := c.ragService.HandleConversation(ctx.Request.Context(), req.Conversation)
	ctx.JSON(http.StatusOK, answer)
}

// ChatWithJSON handles POST /chat-with-json. Any JSON value is accepted.
func (c *RAGController) ChatWithJSON(ctx *gin.Context) {
	var payload any
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON: " + err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, c.ragService.ChatWithJSON(ctx.Request.Context(), payload))
}

// GenerateAudio handles POST /generate-audio.
func (c *RAGController) GenerateAudio(ctx *gin.Context) {
	var req models.GenerateAudioRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No text to convert"})
		return
	}
	if !c.speech.Enabled() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Speech synthesis is not configured"})
		return
	}

	url, ok := c.speech.Synthesize(ctx.Request.Context(), req.Text)
	if !ok {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate audio"})
		return
	}
	ctx.JSON(http.StatusOK, models.AudioResponse{AudioURL: url})
}

// CleanupAudio handles POST /cleanup-audio.
func (c *RAGController) CleanupAudio(ctx *gin.Context) {
	removed, err := c.speech.CleanupOldAudio(c.audioMaxAge)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up audio: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, models.CleanupResponse{
		Success: true,
		Message: "Old audio files removed",
		Removed: removed,
	})
}

// GetAudio handles GET /audio/:filename.
func (c *RAGController) GetAudio(ctx *gin.Context) {
	path, err := c.speech.AudioPath(ctx.Param("filename"))
	if err != nil {
		if errors.Is(err, services.ErrAudioNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Audio file not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Content-Type", "audio/mpeg")
	ctx.File(path)
}
