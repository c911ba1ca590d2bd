package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

var statusStyles = map[models.DeploymentStatus]*color.Color{
	models.DeploymentStatusDeployed: color.New(color.FgGreen),
	models.DeploymentStatusSkipped:  color.New(color.Faint),
	models.DeploymentStatusPending:  color.New(color.FgYellow),
}

// RunResultView is the JSON shape of a deployment run
type RunResultView struct {
	Network  string           `json:"network"`
	ChainID  uint64           `json:"chainId"`
	Tags     []string         `json:"tags"`
	DryRun   bool             `json:"dryRun"`
	Selected int              `json:"selected"`
	Halted   bool             `json:"halted"`
	ExitCode int              `json:"exitCode"`
	Tasks    []TaskResultView `json:"tasks"`
}

// TaskResultView is the JSON shape of one task outcome
type TaskResultView struct {
	Name        string                 `json:"name"`
	Tags        []string               `json:"tags"`
	Deployments []*models.DeployResult `json:"deployments"`
	Error       string                 `json:"error,omitempty"`
	DurationMs  int64                  `json:"durationMs"`
}

// NewRunResultView converts a run result for JSON output
func NewRunResultView(result *usecase.RunDeploymentsResult) RunResultView {
	view := RunResultView{
		Tags:     result.Tags,
		DryRun:   result.DryRun,
		Selected: result.Selected,
		Halted:   result.Halted,
		ExitCode: result.ExitCode(),
		Tasks:    make([]TaskResultView, 0, len(result.Tasks)),
	}
	if result.Network != nil {
		view.Network = result.Network.Name
		view.ChainID = result.Network.ChainID
	}
	for _, tr := range result.Tasks {
		tv := TaskResultView{
			Name:        tr.Task.Name,
			Tags:        tr.Task.Tags,
			Deployments: tr.Deployments,
			DurationMs:  tr.Duration.Milliseconds(),
		}
		if tr.Err != nil {
			tv.Error = tr.Err.Error()
		}
		view.Tasks = append(view.Tasks, tv)
	}
	return view
}

// RunRenderer renders the summary of a deployment run
type RunRenderer struct {
	out   io.Writer
	color bool
}

// NewRunRenderer creates a new run renderer
func NewRunRenderer(out io.Writer, color bool) *RunRenderer {
	return &RunRenderer{
		out:   out,
		color: color,
	}
}

// RenderRunResult renders one row per deploy-or-skip call followed by a summary line
func (r *RunRenderer) RenderRunResult(result *usecase.RunDeploymentsResult) error {
	fmt.Fprintln(r.out)
	header := fmt.Sprintf(" %s ", result.Network.Name)
	if result.DryRun {
		header += "(dry run) "
	}
	fmt.Fprintf(r.out, "%s %s\n\n", networkStyle.Sprint(header), color.New(color.Faint).Sprintf("chain %d", result.Network.ChainID))

	if result.Selected == 0 {
		fmt.Fprintln(r.out, FormatWarning("No tasks matched the requested tags"))
		return nil
	}

	counts := make(map[models.DeploymentStatus]int)
	t := newTable(5)
	for _, tr := range result.Tasks {
		if len(tr.Deployments) == 0 && tr.Err == nil {
			t.AppendRow(table.Row{headerStyle.Sprint(tr.Task.Name), color.New(color.Faint).Sprint("(no deployments)"), "", "", ""})
		}
		for _, dr := range tr.Deployments {
			counts[dr.Status]++
			t.AppendRow(table.Row{
				headerStyle.Sprint(tr.Task.Name),
				contractStyle.Sprint(dr.Deployment.ContractName),
				statusStyles[dr.Status].Sprint(title(statusLabel(dr.Status))),
				addressStyle.Sprint(dr.Deployment.Address),
				timestampStyle.Sprint(tr.Duration.Round(time.Millisecond)),
			})
		}
		if tr.Err != nil {
			t.AppendRow(table.Row{headerStyle.Sprint(tr.Task.Name), color.New(color.FgRed).Sprint("failed"), "", "", ""})
		}
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	summary := fmt.Sprintf("%d task(s): %d deployed, %d reused", len(result.Tasks),
		counts[models.DeploymentStatusDeployed], counts[models.DeploymentStatusSkipped])
	if result.DryRun {
		summary = fmt.Sprintf("%d task(s): %d would deploy, %d up to date", len(result.Tasks),
			counts[models.DeploymentStatusPending], counts[models.DeploymentStatusSkipped])
	}

	if result.Err == nil {
		fmt.Fprintln(r.out, FormatSuccess(summary))
		return nil
	}

	fmt.Fprintln(r.out, color.New(color.FgRed).Sprintf("❌ %s", summary))
	for _, tr := range result.Tasks {
		if tr.Err != nil {
			fmt.Fprintf(r.out, "   %s\n", tr.Err)
		}
	}
	if result.Halted {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Run halted: %d of %d selected task(s) not run", result.Selected-len(result.Tasks), result.Selected)))
	}
	return nil
}

func statusLabel(status models.DeploymentStatus) string {
	switch status {
	case models.DeploymentStatusSkipped:
		return "reused"
	case models.DeploymentStatusPending:
		return "would deploy"
	default:
		return string(status)
	}
}
