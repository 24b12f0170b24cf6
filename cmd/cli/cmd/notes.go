package cmd

import (
	"context"
	"fmt"
	"time"

	"noteflow/internal/gateway"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Print the notes of a user",
	Long:  `Resolve the user by email and print their notes, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			cmd.Println("--email is required")
			return
		}

		ctx := context.Background()
		client := gateway.New(viper.GetString("api_url"))

		users, err := client.GetUser(ctx, email)
		if err != nil {
			cmd.Printf("Failed to look up user: %v\n", err)
			return
		}
		if len(users) == 0 {
			cmd.Printf("No user registered for %s\n", email)
			return
		}

		notes, err := client.GetNotes(ctx, users[0].ID)
		if err != nil {
			cmd.Printf("Failed to fetch notes: %v\n", err)
			return
		}
		if len(notes) == 0 {
			cmd.Println("No notes yet")
			return
		}

		for i, note := range notes {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s%s%s %s(updated %s)%s\n", colorBold, note.ID, colorReset,
				colorDim, relativeTime(note.UpdatedAt), colorReset)
			cmd.Println(note.Content)
		}
	},
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds ago", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func init() {
	notesCmd.Flags().StringP("email", "e", "", "Email of the note owner")

	rootCmd.AddCommand(notesCmd)
}
