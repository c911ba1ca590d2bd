package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// TaskView is the JSON shape of a registered task
type TaskView struct {
	Name   string   `json:"name"`
	Tags   []string `json:"tags"`
	Roles  []string `json:"roles"`
	Source string   `json:"source"`
}

// TaskListView is the JSON shape of the task listing
type TaskListView struct {
	Tasks []TaskView `json:"tasks"`
	Tags  []string   `json:"tags"`
}

// NewTaskListView converts a task listing for JSON output
func NewTaskListView(result *usecase.ListTasksResult) TaskListView {
	view := TaskListView{Tags: result.Tags, Tasks: make([]TaskView, 0, len(result.Tasks))}
	for _, task := range result.Tasks {
		view.Tasks = append(view.Tasks, TaskView{
			Name:   task.Name,
			Tags:   task.Tags,
			Roles:  task.Roles,
			Source: task.Source,
		})
	}
	return view
}

// TasksRenderer renders the task catalog
type TasksRenderer struct {
	out io.Writer
}

// NewTasksRenderer creates a new tasks renderer
func NewTasksRenderer(out io.Writer) *TasksRenderer {
	return &TasksRenderer{out: out}
}

// RenderTasks renders tasks in the order a deploy would run them
func (r *TasksRenderer) RenderTasks(result *usecase.ListTasksResult) error {
	if len(result.Tasks) == 0 {
		if len(result.Requested) > 0 {
			fmt.Fprintf(r.out, "No tasks tagged %s\n", strings.Join(result.Requested, ", "))
		} else {
			fmt.Fprintln(r.out, "No tasks registered")
		}
		return nil
	}

	fmt.Fprintln(r.out, headerStyle.Sprint("Tasks (in run order):"))
	fmt.Fprintln(r.out)

	t := newTable(4)
	for i, task := range result.Tasks {
		t.AppendRow(table.Row{
			color.New(color.Faint).Sprintf("%d.", i+1),
			contractStyle.Sprint(task.Name),
			tagsStyle.Sprint(strings.Join(task.Tags, ",")),
			color.New(color.Faint).Sprintf("roles: %s  source: %s", strings.Join(task.Roles, ","), task.Source),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s %s\n", headerStyle.Sprint("Tags:"), strings.Join(result.Tags, ", "))
	return nil
}
