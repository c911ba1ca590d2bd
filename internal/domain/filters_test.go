package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, TaskEnv) error { return nil }

func taskNames(tasks []*Task) []string {
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return names
}

func TestSelectTasks(t *testing.T) {
	t1 := &Task{Name: "T1", Tags: []string{"all", "foo"}, Func: noop}
	t2 := &Task{Name: "T2", Tags: []string{"all", "bar"}, Func: noop}
	tasks := []*Task{t1, t2}

	tests := []struct {
		name         string
		tags         []string
		requireMatch bool
		want         []string
		wantErr      bool
	}{
		{name: "single specific tag", tags: []string{"foo"}, want: []string{"T1"}},
		{name: "all keeps registration order", tags: []string{"all"}, want: []string{"T1", "T2"}},
		{name: "unknown tag yields empty", tags: []string{"baz"}, want: []string{}},
		{name: "overlapping tags do not duplicate", tags: []string{"all", "foo", "bar"}, want: []string{"T1", "T2"}},
		{name: "request order does not change result order", tags: []string{"bar", "foo"}, want: []string{"T1", "T2"}},
		{name: "comma separated values", tags: []string{"bar, baz"}, want: []string{"T2"}},
		{name: "empty request selects everything", tags: nil, want: []string{"T1", "T2"}},
		{name: "required match fails", tags: []string{"baz"}, requireMatch: true, wantErr: true},
		{name: "required match succeeds", tags: []string{"bar"}, requireMatch: true, want: []string{"T2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectTasks(tasks, tt.tags, tt.requireMatch)
			if tt.wantErr {
				var noMatch *NoMatchingTaskError
				require.ErrorAs(t, err, &noMatch)
				assert.Equal(t, NormalizeTags(tt.tags), noMatch.Tags)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, taskNames(got))
		})
	}
}

func TestSelectTasksNoTasksRequired(t *testing.T) {
	_, err := SelectTasks(nil, nil, true)
	require.Error(t, err)
	assert.Equal(t, "no tasks registered", err.Error())
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"all", "Transport"}, NormalizeTags([]string{" all ,Transport", "all", ""}))
	assert.Empty(t, NormalizeTags([]string{" , "}))
}

func TestAllTags(t *testing.T) {
	tasks := []*Task{
		{Name: "A", Tags: []string{"all", "A"}},
		{Name: "B", Tags: []string{"all", "B"}},
	}
	assert.Equal(t, []string{"all", "A", "B"}, AllTags(tasks))
}

func TestTaskValidate(t *testing.T) {
	assert.NoError(t, (&Task{Name: "A", Tags: []string{"all"}, Func: noop}).Validate())
	assert.Error(t, (&Task{Tags: []string{"all"}, Func: noop}).Validate())
	assert.Error(t, (&Task{Name: "A", Func: noop}).Validate())
	assert.Error(t, (&Task{Name: "A", Tags: []string{"all"}}).Validate())
}
