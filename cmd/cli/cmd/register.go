package cmd

import (
	"context"

	"noteflow/internal/gateway"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user",
	Long:  `Register a new user with the noteflow CRUD API. The password is hashed server-side; only the digest is stored.`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			cmd.Println("Both --email and --password are required")
			return
		}

		client := gateway.New(viper.GetString("api_url"))
		resp, err := client.StoreUser(context.Background(), email, password)
		if err != nil {
			cmd.Printf("Failed to register user: %v\n", err)
			return
		}

		cmd.Printf("Registered %s (id: %s)\n", resp.Email, resp.ID)
	},
}

func init() {
	registerCmd.Flags().StringP("email", "e", "", "Email address")
	registerCmd.Flags().StringP("password", "p", "", "Password")

	rootCmd.AddCommand(registerCmd)
}
