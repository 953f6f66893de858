package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/itish2003/simplybot/models"
	"github.com/itish2003/simplybot/services"
)

type HealthController struct {
	llm      services.LLMClient
	store    services.VectorStore
	speech   services.SpeechService
	embedder services.Embedder
}

func NewHealthController(llm services.LLMClient, store services.VectorStore, speech services.SpeechService, embedder services.Embedder) *HealthController {
	return &HealthController{llm: llm, store: store, speech: speech, embedder: embedder}
}

// Health reports per-dependency status. It always answers 200; a broken
// dependency shows up in the services map.
func (c *HealthController) Health(ctx *gin.Context) {
	svc := map[string]string{}

	if c.llm != nil {
		svc["llm"] = "ok"
		svc["llm_provider"] = c.llm.Name()
	} else {
		svc["llm"] = "no_api_key"
	}

	if err := c.store.Health(ctx.Request.Context()); err != nil {
		svc["vector_store"] = "error"
	} else {
		svc["vector_store"] = "ok"
		if _, err := c.store.Info(ctx.Request.Context()); err != nil {
			if errors.Is(err, services.ErrCollectionNotFound) {
				svc["collection"] = "not_found"
			} else {
				svc["collection"] = "error"
			}
		} else {
			svc["collection"] = "ok"
		}
	}

	if c.speech != nil && c.speech.Enabled() {
		svc["speech"] = "ok"
	} else {
		svc["speech"] = "no_api_key"
	}

	svc["embeddings"] = c.embedder.Name()
	if bge, ok := c.embedder.(*services.BGEEmbedder); ok {
		svc["bge_model"] = bge.Model()
	}

	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Message:  "SimplyBot API",
		Services: svc,
	})
}
