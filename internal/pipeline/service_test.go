package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/services/genai"
)

func TestService_ChatPersistsTurnsAndContext(t *testing.T) {
	gen := &recordingGenerator{reply: "Noted."}
	f := newFixture(t, gen)
	svc := NewService(f.pipeline, f.repo, DefaultServiceConfig(), logger.NewTestLogger(t))
	ctx := context.Background()

	res, err := svc.Chat(ctx, "user-1", "  remember my favorite color is blue ")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStoreMemory, res.Intent)

	turns, err := f.repo.RecentTurns(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "remember my favorite color is blue", turns[0].UserMessage)
	assert.Equal(t, res.ResponseText, turns[0].AIResponse)
	assert.Equal(t, models.IntentStoreMemory, turns[0].Intent)

	_, err = svc.Chat(ctx, "user-1", "I spent $20 on groceries")
	require.NoError(t, err)

	_, err = svc.Chat(ctx, "user-1", "hello")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 3)
	last := gen.prompts[2]
	assert.Contains(t, last, "Personal memories: remember my favorite color is blue")
	assert.Contains(t, last, "Budget status: Income: $0.00, Expenses: $20.00, Balance: $-20.00")
	assert.Contains(t, last, "User: I spent $20 on groceries")

	assert.Contains(t, gen.prompts[0], "Budget status: No budget information available")
}

func TestService_ChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t, genai.Static{Text: "unused"})
	svc := NewService(f.pipeline, f.repo, DefaultServiceConfig(), logger.NewTestLogger(t))

	_, err := svc.Chat(context.Background(), "user-1", "")
	require.Error(t, err)

	turns, err := f.repo.RecentTurns(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestService_UserData(t *testing.T) {
	f := newFixture(t, genai.Static{Text: "Ok."})
	svc := NewService(f.pipeline, f.repo, DefaultServiceConfig(), logger.NewTestLogger(t))
	ctx := context.Background()

	empty, err := svc.UserData(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", empty.UserID)
	assert.Equal(t, 0, empty.MemoriesCount)
	assert.Equal(t, []string{}, empty.RecentMemories)
	assert.Equal(t, "No budget information available", empty.Budget)

	for _, msg := range []string{
		"remember my name is Ada",
		"remember I love jazz",
		"I have math homework to finish chapter 3",
		"I spent $5 on coffee",
	} {
		_, err := svc.Chat(ctx, "user-1", msg)
		require.NoError(t, err)
	}

	data, err := svc.UserData(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, data.MemoriesCount)
	assert.Equal(t, []string{"remember I love jazz", "remember my name is Ada"}, data.RecentMemories)
	assert.Equal(t, 1, data.TasksCount)
	assert.Equal(t, 5.0, data.BudgetSummary.TotalExpenses)
	assert.Equal(t, "Income: $0.00, Expenses: $5.00, Balance: $-5.00", data.Budget)
}
