package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	if !result.Exists {
		fmt.Fprintf(r.out, "❌ No .treb/config.local.json file found\n")
		fmt.Fprintf(r.out, "⚠️  Without config, commands require an explicit --network flag\n")
		return nil
	}

	fmt.Fprintln(r.out, "📋 Current config:")

	if result.Config.Network != "" {
		fmt.Fprintf(r.out, "Network:   %s\n", result.Config.Network)
	} else {
		fmt.Fprintf(r.out, "Network:   %s\n", "(not set)")
	}

	if n := result.Network; n != nil {
		fmt.Fprintf(r.out, "\n🔗 Resolved: %s (chain %d), %d confirmation(s), timeout %s\n",
			n.Name, n.ChainID, n.RequiredConfirmations, n.ConfirmationTimeout)
	}

	if len(result.Roles) > 0 {
		fmt.Fprintf(r.out, "👤 Accounts:  %s\n", strings.Join(result.Roles, ", "))
	}

	fmt.Fprintf(r.out, "📁 config file: %s\n", getRelativePath(result.ConfigPath))

	return nil
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.SetConfigResult) error {
	fmt.Fprintf(r.out, "✅ Set %s to: %s\n", result.Key, result.Value)
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove renders the result of removing a configuration value
func (r *ConfigRenderer) RenderRemove(result *usecase.RemoveConfigResult) error {
	if result.RemovedValue == "" {
		fmt.Fprintf(r.out, "%s was not set\n", result.Key)
	} else {
		fmt.Fprintf(r.out, "✅ Removed %s (was: %s)\n", result.Key, result.RemovedValue)
	}
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", getRelativePath(result.ConfigPath))
	return nil
}
