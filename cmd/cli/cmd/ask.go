package cmd

import (
	"time"

	"noteflow/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask the chat model and append the reply to your note",
	Long: `Create a workflow instance that calls the chat model with the query,
resolves your user id, fetches your existing note, and saves the reply
appended to it. Prints the instance id for later polling.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := args[0]
		email, _ := cmd.Flags().GetString("email")
		wait, _ := cmd.Flags().GetBool("wait")

		if email == "" {
			cmd.Println("--email is required")
			return
		}

		client := NewOrchestratorClient(viper.GetString("orchestrator_url"))
		resp, err := client.CreateInstance(api.CreateInstanceRequest{
			Email:    email,
			Metadata: map[string]string{"source": "notectl"},
			Query:    query,
		})
		if err != nil {
			cmd.Printf("Failed to create instance: %v\n", err)
			return
		}

		cmd.Printf("Instance created: %s (state: %s)\n", resp.ID, resp.Details.State)

		if !wait {
			cmd.Printf("Poll with: notectl status %s\n", resp.ID)
			return
		}

		// Poll until the instance reaches a terminal state.
		for {
			time.Sleep(1 * time.Second)

			status, err := client.GetStatus(resp.ID)
			if err != nil {
				cmd.Printf("Failed to poll status: %v\n", err)
				return
			}

			switch status.Status.State {
			case "succeeded":
				cmd.Println("Instance succeeded")
				return
			case "failed":
				cmd.Printf("Instance failed at step %q: %s\n", status.Status.FailedStep, status.Status.Error)
				return
			}
		}
	},
}

func init() {
	askCmd.Flags().StringP("email", "e", "", "Email of the note owner")
	askCmd.Flags().BoolP("wait", "w", false, "Poll until the instance finishes")

	rootCmd.AddCommand(askCmd)
}
