// Package bulk performs the local, pre-transaction validation of batched
// feedback creation. It never touches the database: syntactic id checks,
// field bounds and in-batch de-duplication all run here so a bad batch is
// rejected before any transactional work starts.
package bulk

import (
	"fmt"
	"strings"

	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
)

// MaxBatchSize bounds one bulk creation request.
const MaxBatchSize = 100

// Entry is a locally validated batch entry with its parsed employee id.
type Entry struct {
	EmployeeID     domain.UserID
	Strengths      string
	AreasToImprove string
	Sentiment      models.Sentiment
}

// Validate checks the whole batch and either returns the validated entries or
// a single validation error aggregating every per-index problem. Partial
// batches are never accepted: one invalid entry rejects all of them.
func Validate(entries []models.BulkEntry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "entries array must not be empty")
	}
	if len(entries) > MaxBatchSize {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("batch exceeds %d entries", MaxBatchSize))
	}

	var problems []string
	addProblem := func(index int, message string) {
		problems = append(problems, fmt.Sprintf("entry %d: %s", index, message))
	}

	validated := make([]Entry, 0, len(entries))
	seen := make(map[domain.UserID]int, len(entries))
	for i, entry := range entries {
		employeeID, err := domain.ParseUserID(entry.EmployeeID)
		if err != nil {
			addProblem(i, dErrors.MessageOf(err))
		} else if firstIndex, dup := seen[employeeID]; dup {
			addProblem(i, fmt.Sprintf("duplicate employee id, first seen at entry %d", firstIndex))
		} else {
			seen[employeeID] = i
		}

		if entry.Strengths == "" {
			addProblem(i, "strengths cannot be empty")
		} else if len([]rune(entry.Strengths)) > models.MaxTextLength {
			addProblem(i, "strengths must be 1000 characters or less")
		}
		if entry.AreasToImprove == "" {
			addProblem(i, "areas_to_improve cannot be empty")
		} else if len([]rune(entry.AreasToImprove)) > models.MaxTextLength {
			addProblem(i, "areas_to_improve must be 1000 characters or less")
		}
		if !entry.Sentiment.IsValid() {
			addProblem(i, "sentiment must be positive, neutral or negative")
		}

		validated = append(validated, Entry{
			EmployeeID:     employeeID,
			Strengths:      entry.Strengths,
			AreasToImprove: entry.AreasToImprove,
			Sentiment:      entry.Sentiment,
		})
	}

	if len(problems) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; "))
	}
	return validated, nil
}
