package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// NewTasksCmd creates the tasks command
func NewTasksCmd() *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "tasks [tags...]",
		Short: "List registered deployment tasks",
		Long: `List the built-in tasks and the tasks declared in deploy/tasks.yaml in the
order a deploy runs them. With tags, only the tasks a deploy with the same
tags would run are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListTasks.Run(cmd.Context(), usecase.ListTasksParams{
				Tags: append(tags, args...),
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.NewJSONRenderer[render.TaskListView](cmd.OutOrStdout()).Render(render.NewTaskListView(result))
			}
			return render.NewTasksRenderer(cmd.OutOrStdout()).RenderTasks(result)
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only list tasks carrying one of these tags")

	return cmd
}
