// Package cli defines the cobra commands of the tutorcli terminal client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	namespace  string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "tutorcli",
	Short: "Terminal client for the AI tutor",
	Long: `tutorcli runs the tutoring core in-process. It can teach a document
section by section, chat over indexed material, and tail the event bus.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			_ = os.Setenv("TUTOR_CONFIG_FILE", configFile)
		}
		setColor(!noColor)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file overlaid on the environment configuration")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Vector index namespace")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(eventsCmd)
}
