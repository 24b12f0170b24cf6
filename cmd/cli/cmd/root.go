package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "notectl",
	Short: "Notectl is a command line tool for the noteflow services",
	Long: `notectl is the command-line interface for noteflow.

Noteflow keeps one AI-augmented note per user: asking a question runs a
durable four-step workflow that calls the chat model, resolves the user,
reads the existing note, and appends the reply to it.

Common workflows:

  Register a user:
    notectl register --email "a@x.com" --password "pw"

  Ask a question and append the answer to your note:
    notectl ask "What did I plan for today?" --email "a@x.com"

  Check a workflow instance:
    notectl status <instance-id>

  Print your notes:
    notectl notes --email "a@x.com"

Configuration:
  Set the endpoints via flags, environment variables, or a config file:
    NOTEFLOW_API_URL             CRUD API endpoint (default: http://localhost:8787)
    NOTEFLOW_ORCHESTRATOR_URL    Orchestrator endpoint (default: http://localhost:8788)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".notectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".notectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "NOTEFLOW_VARNAME"
	viper.SetEnvPrefix("NOTEFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.notectl.yaml)")

	rootCmd.PersistentFlags().String("api-url", "http://localhost:8787", "Noteflow CRUD API URL")
	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.PersistentFlags().String("orchestrator-url", "http://localhost:8788", "Noteflow orchestrator URL")
	viper.BindPFlag("orchestrator_url", rootCmd.PersistentFlags().Lookup("orchestrator-url"))
}
