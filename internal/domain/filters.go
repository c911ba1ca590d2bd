package domain

import (
	"strings"

	"github.com/samber/lo"
)

// DeploymentFilter defines filtering options for deployments
type DeploymentFilter struct {
	ContractName string
	Task         string
	Tag          string
}

// SelectTasks returns every task whose tags intersect the requested tags,
// in registration order and without duplicates. An empty request selects
// every task. When requireMatch is set an empty result is an error.
func SelectTasks(tasks []*Task, requested []string, requireMatch bool) ([]*Task, error) {
	tags := NormalizeTags(requested)

	selected := tasks
	if len(tags) > 0 {
		selected = lo.Filter(tasks, func(t *Task, _ int) bool {
			return lo.SomeBy(tags, t.HasTag)
		})
	}
	selected = lo.UniqBy(selected, func(t *Task) string { return t.Name })

	if len(selected) == 0 && requireMatch {
		return nil, &NoMatchingTaskError{Tags: tags}
	}
	return selected, nil
}

// NormalizeTags splits comma separated values, trims them and drops blanks
// and duplicates, keeping first-seen order
func NormalizeTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			tags = append(tags, strings.TrimSpace(part))
		}
	}
	return lo.Uniq(lo.Compact(tags))
}

// AllTags returns the distinct tags of the given tasks in first-seen order
func AllTags(tasks []*Task) []string {
	return lo.Uniq(lo.FlatMap(tasks, func(t *Task, _ int) []string { return t.Tags }))
}
