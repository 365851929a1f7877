package pipeline

import (
	"context"
	"strings"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/dispatcher"
	"raphael-assistant/internal/services/genai"
	"raphael-assistant/internal/services/storage"
)

type ServiceConfig struct {
	HistoryTurns int
	MemoryLimit  int
	TaskLimit    int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{HistoryTurns: 6, MemoryLimit: 5, TaskLimit: 5}
}

// Service loads the user's context around ProcessTurn and records the turn.
type Service struct {
	pipeline *Pipeline
	repo     *storage.Repository
	config   ServiceConfig
	logger   logger.Logger
}

func NewService(p *Pipeline, repo *storage.Repository, cfg ServiceConfig, log logger.Logger) *Service {
	return &Service{
		pipeline: p,
		repo:     repo,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "chat-service"}),
	}
}

// UserData summarizes what the assistant knows about a user.
type UserData struct {
	UserID         string               `json:"user_id"`
	MemoriesCount  int                  `json:"memories_count"`
	RecentMemories []string             `json:"recent_memories"`
	TasksCount     int                  `json:"tasks_count"`
	Budget         string               `json:"budget"`
	BudgetSummary  models.BudgetSummary `json:"budget_summary"`
}

// Chat processes message for userID and appends the turn to the history.
func (s *Service) Chat(ctx context.Context, userID, message string) (models.TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.TurnResult{}, errors.NewEmptyMessageError()
	}

	history, pc := s.loadContext(ctx, userID)

	result, err := s.pipeline.ProcessTurn(ctx, userID, message, history, pc)
	if err != nil {
		return models.TurnResult{}, err
	}

	_, err = s.repo.AppendTurn(ctx, userID, models.ConversationTurn{
		UserMessage: message,
		AIResponse:  result.ResponseText,
		Intent:      result.Intent,
		Sender:      models.SenderUser,
	})
	if err != nil {
		s.logger.Warn("failed to save conversation turn", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
	}
	return result, nil
}

// loadContext degrades to an empty context piece by piece.
func (s *Service) loadContext(ctx context.Context, userID string) ([]models.HistoryEntry, models.PersonalContext) {
	var pc models.PersonalContext
	warn := func(what string, err error) {
		s.logger.Warn("failed to load context", map[string]interface{}{
			"userId": userID,
			"part":   what,
			"error":  err,
		})
	}

	turns, err := s.repo.RecentTurns(ctx, userID, s.config.HistoryTurns)
	if err != nil {
		warn("conversations", err)
	}

	if memories, err := s.repo.RecentMemories(ctx, userID, s.config.MemoryLimit); err != nil {
		warn("memories", err)
	} else {
		for _, m := range memories {
			pc.Memories = append(pc.Memories, m.Text)
		}
	}

	if summary, err := s.repo.BudgetSummary(ctx, userID); err != nil {
		warn("budget", err)
	} else {
		pc.Budget = budgetContext(summary)
	}

	if tasks, err := s.repo.Tasks(ctx, userID, models.TaskStatusPending, s.config.TaskLimit); err != nil {
		warn("tasks", err)
	} else {
		for _, t := range tasks {
			pc.Tasks = append(pc.Tasks, dispatcher.FormatTask(t))
		}
	}

	return genai.HistoryFromTurns(turns), pc
}

const noBudget = "No budget information available"

func budgetContext(summary models.BudgetSummary) string {
	if summary.Transactions == 0 {
		return noBudget
	}
	return dispatcher.FormatBudget(summary)
}

func (s *Service) UserData(ctx context.Context, userID string) (UserData, error) {
	data := UserData{UserID: userID, RecentMemories: []string{}}

	count, err := s.repo.CountMemories(ctx, userID)
	if err != nil {
		return UserData{}, storage.AsStandardError(models.CollectionMemories, err)
	}
	data.MemoriesCount = count

	memories, err := s.repo.RecentMemories(ctx, userID, s.config.MemoryLimit)
	if err != nil {
		return UserData{}, storage.AsStandardError(models.CollectionMemories, err)
	}
	for _, m := range memories {
		data.RecentMemories = append(data.RecentMemories, m.Text)
	}

	tasks, err := s.repo.Tasks(ctx, userID, models.TaskStatusPending, 0)
	if err != nil {
		return UserData{}, storage.AsStandardError(models.CollectionTasks, err)
	}
	data.TasksCount = len(tasks)

	data.BudgetSummary, err = s.repo.BudgetSummary(ctx, userID)
	if err != nil {
		return UserData{}, storage.AsStandardError(models.CollectionTransactions, err)
	}
	data.Budget = budgetContext(data.BudgetSummary)
	return data, nil
}
