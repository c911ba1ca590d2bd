package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
)

// ListTasksParams contains parameters for listing tasks
type ListTasksParams struct {
	Tags []string
}

// ListTasksResult contains the tasks a deploy with the same tags would run
type ListTasksResult struct {
	Tasks []*domain.Task
	// Tags lists every tag known to the catalog
	Tags []string
	// Requested are the normalized tags of the query
	Requested []string
}

// ListTasks is the use case for listing registered tasks
type ListTasks struct {
	catalog TaskCatalog
}

// NewListTasks creates a new ListTasks use case
func NewListTasks(catalog TaskCatalog) *ListTasks {
	return &ListTasks{catalog: catalog}
}

// Run executes the list tasks use case
func (uc *ListTasks) Run(ctx context.Context, params ListTasksParams) (*ListTasksResult, error) {
	tasks, err := uc.catalog.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	selected, err := domain.SelectTasks(tasks, params.Tags, false)
	if err != nil {
		return nil, err
	}

	return &ListTasksResult{
		Tasks:     selected,
		Tags:      domain.AllTags(tasks),
		Requested: domain.NormalizeTags(params.Tags),
	}, nil
}
