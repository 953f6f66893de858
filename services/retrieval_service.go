package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// DefaultRetrievalLimit is how many chunks a question pulls from the store.
const DefaultRetrievalLimit = 5

// RetrievalService finds chunks similar to a query. Failures are logged and
// reported as no results.
type RetrievalService interface {
	Retrieve(ctx context.Context, query string, limit int) []models.RetrievedDocument
}

type retrievalServiceImpl struct {
	embedder Embedder
	store    VectorStore
	metrics  *Metrics
	log      *zap.Logger
}

func NewRetrievalService(embedder Embedder, store VectorStore, metrics *Metrics, log *zap.Logger) RetrievalService {
	return &retrievalServiceImpl{embedder: embedder, store: store, metrics: metrics, log: log}
}

func (r *retrievalServiceImpl) Retrieve(ctx context.Context, query string, limit int) []models.RetrievedDocument {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Error("retrieval: could not embed query", zap.Error(err))
		r.metrics.observeRetrieval(0, err)
		return nil
	}

	docs, err := r.store.Search(ctx, vec, limit)
	if err != nil {
		r.log.Error("retrieval: search failed", zap.Error(err))
		r.metrics.observeRetrieval(0, err)
		return nil
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	r.log.Info("retrieval: found documents", zap.Int("count", len(docs)))
	r.metrics.observeRetrieval(len(docs), nil)
	return docs
}
