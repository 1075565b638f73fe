package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

var errUpsertFailed = errors.New("vector upsert failed")

// MemoryWriter embeds a job's text and upserts it into the vector store.
type MemoryWriter struct {
	Embedder Embedder
	Store    VectorStore
	Logger   *logrus.Logger
}

func NewMemoryWriter(e Embedder, s VectorStore, logger *logrus.Logger) *MemoryWriter {
	return &MemoryWriter{Embedder: e, Store: s, Logger: logger}
}

// Write returns an error so runners can log and count failures; callers on
// the request path never see it.
func (w *MemoryWriter) Write(ctx context.Context, job MemoryJob) error {
	if w.Embedder == nil || w.Store == nil {
		return nil
	}
	vec, err := w.Embedder.Embed(ctx, job.Text)
	if err != nil {
		return fmt.Errorf("embed %s %s: %w", job.Kind, job.ID, err)
	}
	payload := map[string]any{
		"type":    job.Kind,
		"text":    job.Text,
		"date":    job.Date.UTC().Format(time.RFC3339),
		"user_id": job.UserID,
	}
	if !w.Store.Upsert(ctx, job.ID, vec, payload) {
		return fmt.Errorf("%w: %s", errUpsertFailed, job.ID)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"id": job.ID, "kind": job.Kind}).Debug("memory stored")
	}
	return nil
}

// DescribeAction renders the short text embedded for an action.
func DescribeAction(a *entity.Action) string {
	d := a.Details
	var parts []string
	switch {
	case d.PlantName != "" && d.PlantType != "":
		parts = append(parts, fmt.Sprintf("planted %s (%s)", d.PlantName, d.PlantType))
	case d.PlantName != "":
		parts = append(parts, "planted "+d.PlantName)
	}
	if d.Title != "" {
		parts = append(parts, d.Title)
	}
	if d.ProductName != "" {
		parts = append(parts, "product "+d.ProductName)
	}
	if d.Description != "" {
		parts = append(parts, d.Description)
	}
	text := "User logged a " + string(a.Type) + " action"
	if len(parts) > 0 {
		text += ": " + strings.Join(parts, ", ")
	}
	return text
}

// DescribeSwap renders the short text embedded for a swap.
func DescribeSwap(s *entity.Swap) string {
	return fmt.Sprintf("User swapped %s for %s (%s, eco score %d to %d)",
		s.Original, s.Replacement, s.Category, s.EcoScoreBefore, s.EcoScoreAfter)
}
