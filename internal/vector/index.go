// Package vector adapts the embedding client and the pgvector-backed record
// store into a single similarity index for status updates.
package vector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/pulsetrack/internal/domain"
)

// Embedder turns free text into an embedding vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// RecordStore persists and searches embedding records.
type RecordStore interface {
	Upsert(ctx context.Context, rec *domain.VectorRecord) error
	Search(ctx context.Context, embedding []float32, memberID string, limit int) ([]*domain.VectorMatch, error)
	Delete(ctx context.Context, updateID string) error
	DeleteByMember(ctx context.Context, memberID string) error
	Count(ctx context.Context) (int64, error)
}

// Index is the similarity index over status update bodies. Writes are
// last-write-wins per update ID; reads return matches ordered by descending
// relevance.
type Index struct {
	embedder Embedder
	records  RecordStore
}

func NewIndex(embedder Embedder, records RecordStore) *Index {
	return &Index{embedder: embedder, records: records}
}

// UpsertInput carries the denormalized fields stored alongside the embedding.
type UpsertInput struct {
	UpdateID   string
	MemberID   string
	MemberName string
	Body       string
	RecordedAt time.Time
}

// Upsert embeds the body and stores the record, replacing any prior record
// for the same update.
func (i *Index) Upsert(ctx context.Context, input UpsertInput) error {
	embedding, err := i.embedder.GenerateEmbedding(ctx, input.Body)
	if err != nil {
		return wrapIndexErr("embed", err)
	}

	rec := &domain.VectorRecord{
		UpdateID:   input.UpdateID,
		MemberID:   input.MemberID,
		MemberName: input.MemberName,
		Body:       input.Body,
		Embedding:  embedding,
		RecordedAt: input.RecordedAt,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := i.records.Upsert(ctx, rec); err != nil {
		return wrapIndexErr("upsert", err)
	}
	return nil
}

// Query embeds the text and returns up to limit matches, optionally scoped
// to one member.
func (i *Index) Query(ctx context.Context, text string, memberID string, limit int) ([]*domain.VectorMatch, error) {
	embedding, err := i.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, wrapIndexErr("embed", err)
	}

	matches, err := i.records.Search(ctx, embedding, memberID, limit)
	if err != nil {
		return nil, wrapIndexErr("search", err)
	}
	return matches, nil
}

func (i *Index) Delete(ctx context.Context, updateID string) error {
	if err := i.records.Delete(ctx, updateID); err != nil {
		return wrapIndexErr("delete", err)
	}
	return nil
}

func (i *Index) DeleteByMember(ctx context.Context, memberID string) error {
	if err := i.records.DeleteByMember(ctx, memberID); err != nil {
		return wrapIndexErr("delete member", err)
	}
	return nil
}

func (i *Index) Count(ctx context.Context) (int64, error) {
	count, err := i.records.Count(ctx)
	if err != nil {
		return 0, wrapIndexErr("count", err)
	}
	return count, nil
}

// wrapIndexErr classifies failures of the index itself. Inference-side
// errors from the embedder keep their own classification.
func wrapIndexErr(op string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeIndexDown, fmt.Sprintf("vector index %s failed", op), err)
}
