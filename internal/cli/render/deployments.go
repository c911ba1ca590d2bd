package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// DeploymentsRenderer renders the deployment list of a network as a table
type DeploymentsRenderer struct {
	out   io.Writer
	color bool
}

// NewDeploymentsRenderer creates a new deployments renderer
func NewDeploymentsRenderer(out io.Writer, color bool) *DeploymentsRenderer {
	return &DeploymentsRenderer{
		out:   out,
		color: color,
	}
}

// RenderDeploymentList renders deployments grouped under their network header
func (r *DeploymentsRenderer) RenderDeploymentList(result *usecase.DeploymentListResult) error {
	if len(result.Deployments) == 0 {
		fmt.Fprintf(r.out, "No deployments found on %s\n", result.Network)
		return nil
	}

	chainID := result.Deployments[0].ChainID
	fmt.Fprintf(r.out, "%s %s\n\n",
		networkStyle.Sprintf(" %s ", result.Network),
		color.New(color.Faint).Sprintf("chain %d", chainID),
	)

	t := newTable(5)
	for _, dep := range result.Deployments {
		t.AppendRow(table.Row{
			contractStyle.Sprint(dep.ContractName),
			addressStyle.Sprint(dep.Address),
			tagsStyle.Sprint(strings.Join(dep.Tags, ",")),
			fmt.Sprintf("%d conf", dep.Confirmations),
			timestampStyle.Sprint(formatTimestamp(dep.DeployedAt)),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	r.renderSummary(result.Summary)
	return nil
}

func (r *DeploymentsRenderer) renderSummary(summary usecase.DeploymentSummary) {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "%s %d deployment(s)", headerStyle.Sprint("Total:"), summary.Total)

	if len(summary.ByTask) > 0 {
		tasks := make([]string, 0, len(summary.ByTask))
		for task, count := range summary.ByTask {
			tasks = append(tasks, fmt.Sprintf("%s (%d)", task, count))
		}
		sort.Strings(tasks)
		fmt.Fprintf(r.out, " across tasks %s", strings.Join(tasks, ", "))
	}
	fmt.Fprintln(r.out)
}

// DeploymentRenderer renders detailed information about a single deployment
type DeploymentRenderer struct {
	out   io.Writer
	color bool
}

// NewDeploymentRenderer creates a new deployment renderer
func NewDeploymentRenderer(out io.Writer, color bool) *DeploymentRenderer {
	return &DeploymentRenderer{
		out:   out,
		color: color,
	}
}

// RenderDeployment renders detailed deployment information
func (r *DeploymentRenderer) RenderDeployment(deployment *models.Deployment) error {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Deployment: %s/%s\n", deployment.Network, deployment.ContractName)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	fmt.Fprintln(r.out, "\nBasic Information:")
	fmt.Fprintf(r.out, "  Contract: %s\n", color.New(color.FgYellow).Sprint(deployment.ContractName))
	fmt.Fprintf(r.out, "  Address: %s\n", deployment.Address)
	fmt.Fprintf(r.out, "  Network: %s (chain %d)\n", deployment.Network, deployment.ChainID)
	fmt.Fprintf(r.out, "  Deployer: %s\n", deployment.Deployer)
	if deployment.Task != "" {
		fmt.Fprintf(r.out, "  Task: %s\n", deployment.Task)
	}
	if len(deployment.Tags) > 0 {
		fmt.Fprintf(r.out, "  Tags: %s\n", tagsStyle.Sprint(strings.Join(deployment.Tags, ", ")))
	}

	if len(deployment.ConstructorArgs) > 0 {
		fmt.Fprintln(r.out, "\nConstructor Arguments:")
		for i, arg := range deployment.ConstructorArgs {
			fmt.Fprintf(r.out, "  [%d] %s\n", i, arg)
		}
	}

	fmt.Fprintln(r.out, "\nTransaction:")
	fmt.Fprintf(r.out, "  Hash: %s\n", deployment.TransactionHash)
	fmt.Fprintf(r.out, "  Block: %d (%s)\n", deployment.BlockNumber, deployment.BlockHash)
	fmt.Fprintf(r.out, "  Confirmations: %d\n", deployment.Confirmations)

	fmt.Fprintln(r.out, "\nArtifact:")
	if deployment.ArtifactPath != "" {
		fmt.Fprintf(r.out, "  Path: %s\n", deployment.ArtifactPath)
	}
	fmt.Fprintf(r.out, "  Bytecode Hash: %s\n", deployment.BytecodeHash)
	fmt.Fprintf(r.out, "  Fingerprint: %s\n", deployment.Fingerprint)

	if ts := formatTimestamp(deployment.DeployedAt); ts != "" {
		fmt.Fprintf(r.out, "\nDeployed At: %s\n", timestampStyle.Sprint(ts))
	}

	return nil
}
