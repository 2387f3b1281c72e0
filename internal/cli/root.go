// Package cli wires the smartbot commands: run the gateway, manage the
// config file, print version info.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/4ndikaRizaldy/smartbotv2/internal/cli.version=2.1.0"
	version = "2.0.0"
	logo    = "\n" +
		"  ____                       _   ____        _\n" +
		" / ___| _ __ ___   __ _ _ __| |_| __ )  ___ | |_\n" +
		" \\___ \\| '_ ` _ \\ / _` | '__| __|  _ \\ / _ \\| __|\n" +
		"  ___) | | | | | | (_| | |  | |_| |_) | (_) | |_\n" +
		" |____/|_| |_| |_|\\__,_|_|   \\__|____/ \\___/ \\__|\n"
)

var rootCmd = &cobra.Command{
	Use:   "smartbot",
	Short: "SmartBot - WhatsApp group assistant",
	Long:  color.GreenString(logo) + "\nA WhatsApp group assistant with scheduled open/close, welcome messages and custom commands.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

func printHeader(title string) {
	fmt.Println(color.GreenString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ SmartBot Version")
		fmt.Printf("Version: %s\n", version)
	},
}
