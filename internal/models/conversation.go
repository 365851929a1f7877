// internal/models/conversation.go
package models

import "time"

// Storage collections, one per document kind.
const (
	CollectionConversations = "conversations"
	CollectionMemories      = "memories"
	CollectionTasks         = "homework_tasks"
	CollectionTransactions  = "budget_transactions"
)

// Sender values on a conversation history entry.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ConversationTurn is appended once per processed message.
type ConversationTurn struct {
	UserMessage string    `json:"user_message"`
	AIResponse  string    `json:"ai_response"`
	Intent      Intent    `json:"intent"`
	Timestamp   time.Time `json:"timestamp"`
	Sender      string    `json:"sender"`
}

// HistoryEntry is one line of prior dialogue fed into the prompt.
type HistoryEntry struct {
	Sender  string
	Content string
}

// PersonalContext is re-fetched at the start of every turn.
type PersonalContext struct {
	Memories []string `json:"memories"`
	Budget   string   `json:"budget"`
	Tasks    []string `json:"tasks"`
}

type Memory struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID          string    `json:"id,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	DueDate     string    `json:"due_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

type Transaction struct {
	ID          string    `json:"id,omitempty"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// BudgetSummary totals a user's transactions.
type BudgetSummary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
	Transactions  int     `json:"transactions"`
}
