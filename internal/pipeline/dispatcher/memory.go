package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/extractor"
	"raphael-assistant/internal/services/storage"
)

const memoryStored = "✅ I've stored this information in my memory."

// storeMemory degrades silently: a failed write yields no fragment.
func (d *Dispatcher) storeMemory(ctx context.Context, userID string, entities models.EntityBag, message string) models.ActionOutcome {
	text := entities.Text(models.EntityMemoryText)
	if text == "" {
		text = strings.TrimSpace(message)
	}
	category := entities.Text(models.EntityCategory)
	if category == "" {
		category = extractor.DefaultMemoryCategory
	}

	if _, err := d.repo.AddMemory(ctx, userID, text, category); err != nil {
		return d.failed("storage", "", storage.AsStandardError(models.CollectionMemories, err))
	}
	return models.ActionOutcome{ResponseFragment: memoryStored, SideEffectPerformed: true}
}

// retrieveMemory keeps recent memories containing any query token.
func (d *Dispatcher) retrieveMemory(ctx context.Context, userID string, entities models.EntityBag, message string) models.ActionOutcome {
	memories, err := d.repo.RecentMemories(ctx, userID, d.config.MemoryScanLimit)
	if err != nil {
		return d.failed("storage", fmt.Sprintf("📝 Error retrieving memories: %v", err), storage.AsStandardError(models.CollectionMemories, err))
	}

	query := entities.Text(models.EntityQuery)
	if query == "" {
		query = message
	}
	tokens := strings.Fields(strings.ToLower(query))

	var found []string
	for _, m := range memories {
		if len(found) == d.config.RecallLimit {
			break
		}
		text := strings.ToLower(m.Text)
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				found = append(found, m.Text)
				break
			}
		}
	}

	if len(found) == 0 {
		return models.ActionOutcome{}
	}
	return models.ActionOutcome{ResponseFragment: "📝 Here's what I remember: " + strings.Join(found, "; ")}
}
