package cmd

import (
	"noteflow/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [instance_id]",
	Short: "Get status of a workflow instance",
	Long:  `Retrieve the lifecycle state of a workflow instance (pending, running, succeeded, failed) and, if it failed, the failing step and error detail.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		instanceID := args[0]

		client := NewOrchestratorClient(viper.GetString("orchestrator_url"))
		resp, err := client.GetStatus(instanceID)
		if err != nil {
			cmd.Printf("Failed to get status: %v\n", err)
			return
		}

		printStatus(cmd, instanceID, resp.Status)
	},
}

func printStatus(cmd *cobra.Command, instanceID string, status api.InstanceStatus) {
	icon := statusIcon(status.State)
	cmd.Printf("%s %sInstance Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s      %s\n", colorDim, colorReset, instanceID)
	cmd.Printf("%sState:%s   %s\n", colorDim, colorReset, colorizeState(status.State))

	if status.FailedStep != "" {
		cmd.Printf("%sStep:%s    %s\n", colorDim, colorReset, status.FailedStep)
	}
	if status.Error != "" {
		cmd.Printf("%sError:%s   %s%s%s\n", colorDim, colorReset, colorRed, status.Error, colorReset)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(state string) string {
	switch state {
	case "succeeded":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "running":
		return colorYellow + "⏳" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeState(state string) string {
	icon := statusIcon(state)
	switch state {
	case "succeeded":
		return icon + " " + colorGreen + state + colorReset
	case "failed":
		return icon + " " + colorRed + state + colorReset
	case "running":
		return icon + " " + colorYellow + state + colorReset
	case "pending":
		return icon + " " + colorCyan + state + colorReset
	default:
		return state
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
