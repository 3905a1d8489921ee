// ctl is the popup stand-in: a small CLI that talks to the running
// agent over its loopback message API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	client := &agentClient{}

	root := &cobra.Command{
		Use:           "ytsusctl",
		Short:         "Control the ytsus agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&client.baseURL, "agent",
		envOr("AGENT_ADDR_URL", "http://127.0.0.1:8399"), "Agent base URL")

	root.AddCommand(
		newListCommand(client),
		newToggleCommand(client),
		newClearCommand(client),
		newRefreshCommand(client),
		newSyncCommand(client),
		newSettingsCommand(client),
		newVotesCommand(client),
		newVoteCommand(client),
		newWatchCommand(client),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
