package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/4ndikaRizaldy/smartbotv2/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the smartbot configuration",
}

var configInitOwner string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.ConfigPath()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Config already exists: %s\n", path)
			os.Exit(1)
		}
		home, _ := os.UserHomeDir()
		cfg := config.Default(home)
		cfg.Bot.OwnerNumber = configInitOwner
		if err := config.Save(cfg); err != nil {
			fmt.Printf("Save error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written: %s\n", path)
		if configInitOwner == "" {
			fmt.Println("⚠️ Set bot.ownerNumber before starting the gateway.")
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			fmt.Printf("Encode error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitOwner, "owner", "", "Owner phone number (digits only)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
