package dispatcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"raphael-assistant/internal/common/errors"
	"raphael-assistant/internal/models"
	"raphael-assistant/internal/pipeline/expression"
	"raphael-assistant/internal/pipeline/extractor"
	"raphael-assistant/internal/services/storage"
)

const (
	placeholderSubject = "General"
	defaultDueDate     = "next week"
)

// calculate prefers the natural-language phrasing when the extractor found
// one, then the numeric run, then the whole message.
func (d *Dispatcher) calculate(_ context.Context, _ string, entities models.EntityBag, message string) models.ActionOutcome {
	text := entities.Text(models.EntityWordExpression)
	if text == "" {
		text = entities.Text(models.EntityExpression)
	}
	if text == "" {
		text = message
	}

	result, err := expression.Calculate(text)
	if err != nil {
		var evalErr *expression.EvalError
		msg := "I couldn't understand that expression"
		if stderrors.As(err, &evalErr) {
			msg = evalErr.Message()
		}
		stdErr := errors.NewExpressionInvalidError(err)
		d.logger.Debug("expression rejected", map[string]interface{}{
			"expression": text,
			"errorCode":  string(stdErr.Code),
			"details":    stdErr.Details,
		})
		return models.ActionOutcome{
			ResponseFragment: "🔢 " + msg,
			Err:              stdErr.Kind().Ptr(),
		}
	}
	return models.ActionOutcome{ResponseFragment: "🔢 The result is: " + result}
}

func (d *Dispatcher) addTask(ctx context.Context, userID string, entities models.EntityBag, message string) models.ActionOutcome {
	subject := entities.Text(models.EntitySubject)
	if subject == "" {
		subject = placeholderSubject
	}
	description := entities.Text(models.EntityDescription)
	if description == "" {
		description = entities.Text(models.EntityAssignmentType)
	}
	if description == "" {
		description = strings.TrimSpace(message)
	}

	due := entities[models.EntityDueDate]
	dueDate := due.Text
	if day, ok := d.resolveDay(due); ok {
		dueDate = day.Format("2006-01-02")
	}
	if dueDate == "" {
		dueDate = defaultDueDate
	}

	if _, err := d.repo.AddTask(ctx, userID, subject, description, dueDate); err != nil {
		return d.failed("storage", fmt.Sprintf("📚 Error adding task: %v", err), storage.AsStandardError(models.CollectionTasks, err))
	}
	return models.ActionOutcome{
		ResponseFragment:    fmt.Sprintf("📚 Added task for %s: %s", subject, description),
		SideEffectPerformed: true,
	}
}

// getTasks stays silent when nothing is pending.
func (d *Dispatcher) getTasks(ctx context.Context, userID string, _ models.EntityBag, _ string) models.ActionOutcome {
	tasks, err := d.repo.Tasks(ctx, userID, models.TaskStatusPending, d.config.TaskListLimit)
	if err != nil {
		return d.failed("storage", fmt.Sprintf("📚 Error retrieving tasks: %v", err), storage.AsStandardError(models.CollectionTasks, err))
	}
	if len(tasks) == 0 {
		return models.ActionOutcome{}
	}

	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = "• " + FormatTask(t)
	}
	return models.ActionOutcome{ResponseFragment: "📚 Pending tasks:\n" + strings.Join(lines, "\n")}
}

func (d *Dispatcher) addExpense(ctx context.Context, userID string, entities models.EntityBag, message string) models.ActionOutcome {
	amount, _ := entities.Number(models.EntityAmount)
	category := entities.Text(models.EntityCategory)
	if category == "" {
		category = extractor.DefaultExpenseCategory
	}
	description := entities.Text(models.EntityDescription)
	if description == "" {
		description = strings.TrimSpace(message)
	}

	if _, err := d.repo.AddTransaction(ctx, userID, amount, category, description, models.TransactionExpense); err != nil {
		return d.failed("storage", fmt.Sprintf("💰 Error adding expense: %v", err), storage.AsStandardError(models.CollectionTransactions, err))
	}
	return models.ActionOutcome{
		ResponseFragment:    fmt.Sprintf("💰 Added expense: $%.2f for %s", amount, category),
		SideEffectPerformed: true,
	}
}

// getBudget stays silent when the user has no transactions.
func (d *Dispatcher) getBudget(ctx context.Context, userID string, _ models.EntityBag, _ string) models.ActionOutcome {
	summary, err := d.repo.BudgetSummary(ctx, userID)
	if err != nil {
		return d.failed("storage", fmt.Sprintf("💰 Error retrieving budget: %v", err), storage.AsStandardError(models.CollectionTransactions, err))
	}
	if summary.Transactions == 0 {
		return models.ActionOutcome{}
	}
	return models.ActionOutcome{ResponseFragment: "💰 Budget summary: " + FormatBudget(summary)}
}

// FormatBudget renders a summary for replies and prompt context.
func FormatBudget(s models.BudgetSummary) string {
	return fmt.Sprintf("Income: $%.2f, Expenses: $%.2f, Balance: $%.2f", s.TotalIncome, s.TotalExpenses, s.Balance)
}

// FormatTask renders a task as "subject: description".
func FormatTask(t models.Task) string {
	subject := t.Subject
	if subject == "" {
		subject = "No subject"
	}
	description := t.Description
	if description == "" {
		description = "No description"
	}
	return subject + ": " + description
}
