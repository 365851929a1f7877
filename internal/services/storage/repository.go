package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"raphael-assistant/internal/models"
)

// Repository maps the assistant's document kinds onto a Store.
type Repository struct {
	store Store
	now   func() time.Time
}

// NewRepository wraps store. A nil clock means time.Now.
func NewRepository(store Store, now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{store: store, now: now}
}

func (r *Repository) Store() Store {
	return r.store
}

func (r *Repository) append(ctx context.Context, userID, collection string, v interface{}) (string, error) {
	data, err := toData(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return r.store.Append(ctx, userID, collection, Record{Data: data, CreatedAt: r.now().UTC()})
}

func (r *Repository) AddMemory(ctx context.Context, userID, text, category string) (string, error) {
	return r.append(ctx, userID, models.CollectionMemories, models.Memory{
		Text:      text,
		Category:  category,
		CreatedAt: r.now().UTC(),
	})
}

// RecentMemories returns memories newest first.
func (r *Repository) RecentMemories(ctx context.Context, userID string, limit int) ([]models.Memory, error) {
	records, err := r.store.Query(ctx, userID, models.CollectionMemories, Recent(limit))
	if err != nil {
		return nil, err
	}
	out := make([]models.Memory, 0, len(records))
	for _, rec := range records {
		var m models.Memory
		if err := fromRecord(rec, &m); err != nil {
			return nil, err
		}
		m.ID = rec.ID
		out = append(out, m)
	}
	return out, nil
}

func (r *Repository) CountMemories(ctx context.Context, userID string) (int, error) {
	records, err := r.store.Query(ctx, userID, models.CollectionMemories, QueryOptions{})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *Repository) AddTask(ctx context.Context, userID, subject, description, dueDate string) (string, error) {
	return r.append(ctx, userID, models.CollectionTasks, models.Task{
		Subject:     subject,
		Description: description,
		DueDate:     dueDate,
		Status:      models.TaskStatusPending,
		CreatedAt:   r.now().UTC(),
	})
}

// Tasks returns tasks newest first, optionally only those with status.
func (r *Repository) Tasks(ctx context.Context, userID, status string, limit int) ([]models.Task, error) {
	var filters []Filter
	if status != "" {
		filters = append(filters, Filter{Field: "status", Value: status})
	}
	records, err := r.store.Query(ctx, userID, models.CollectionTasks, Recent(limit, filters...))
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(records))
	for _, rec := range records {
		var t models.Task
		if err := fromRecord(rec, &t); err != nil {
			return nil, err
		}
		t.ID = rec.ID
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) AddTransaction(ctx context.Context, userID string, amount float64, category, description, kind string) (string, error) {
	return r.append(ctx, userID, models.CollectionTransactions, models.Transaction{
		Amount:      amount,
		Category:    category,
		Description: description,
		Type:        kind,
		CreatedAt:   r.now().UTC(),
	})
}

// BudgetSummary totals every transaction of the user.
func (r *Repository) BudgetSummary(ctx context.Context, userID string) (models.BudgetSummary, error) {
	records, err := r.store.Query(ctx, userID, models.CollectionTransactions, QueryOptions{})
	if err != nil {
		return models.BudgetSummary{}, err
	}

	var summary models.BudgetSummary
	for _, rec := range records {
		var t models.Transaction
		if err := fromRecord(rec, &t); err != nil {
			return models.BudgetSummary{}, err
		}
		switch t.Type {
		case models.TransactionIncome:
			summary.TotalIncome += t.Amount
		case models.TransactionExpense:
			summary.TotalExpenses += t.Amount
		}
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpenses
	summary.Transactions = len(records)
	return summary, nil
}

func (r *Repository) AppendTurn(ctx context.Context, userID string, turn models.ConversationTurn) (string, error) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = r.now().UTC()
	}
	return r.append(ctx, userID, models.CollectionConversations, turn)
}

// RecentTurns returns the last limit turns, oldest first.
func (r *Repository) RecentTurns(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	records, err := r.store.Query(ctx, userID, models.CollectionConversations, Recent(limit))
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationTurn, len(records))
	for i, rec := range records {
		var turn models.ConversationTurn
		if err := fromRecord(rec, &turn); err != nil {
			return nil, err
		}
		out[len(records)-1-i] = turn
	}
	return out, nil
}

func toData(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	delete(data, "id")
	return data, nil
}

func fromRecord(rec Record, out interface{}) error {
	raw, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrQueryFailed, rec.ID, err)
	}
	return nil
}
