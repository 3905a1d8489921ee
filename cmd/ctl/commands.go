package main

import (
	"bufio"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orthrauku-dev/yt-sus/internal/model"
)

func newListCommand(client *agentClient) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flagged channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{Action: model.ActionGetHighlightedChannels})
			if err != nil {
				return err
			}

			if len(reply.Channels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no flagged channels")
				return nil
			}

			keys := make([]string, 0, len(reply.Channels))
			for k := range reply.Channels {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				ch := reply.Channels[k]
				name := ch.Name
				if name == "" {
					name = "(unnamed)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-20s %-15s votes=%d added=%s\n",
					k, name, ch.Source, ch.Votes, ch.AddedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func newToggleCommand(client *agentClient) *cobra.Command {
	var name, handle string
	cmd := &cobra.Command{
		Use:   "toggle <channel>",
		Short: "Flag or unflag a channel (@handle, UC id or slug)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{
				Action:        model.ActionToggleChannel,
				ChannelID:     args[0],
				ChannelName:   name,
				ChannelHandle: handle,
			})
			if err != nil {
				return err
			}
			if reply.Highlighted != nil && *reply.Highlighted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s flagged\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s unflagged\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the entry")
	cmd.Flags().StringVar(&handle, "handle", "", "@handle for the entry")
	return cmd
}

func newClearCommand(client *agentClient) *cobra.Command {
	var auto, manual bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear flagged channels (default: everything)",
		RunE: func(cmd *cobra.Command, args []string) error {
			action := model.ActionClearAll
			switch {
			case auto && manual:
				return fmt.Errorf("--auto and --manual are mutually exclusive")
			case auto:
				action = model.ActionClearAutoAdded
			case manual:
				action = model.ActionClearManualAdded
			}
			if _, err := client.send(model.Message{Action: action}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto", false, "Only entries added by votes or remote sync")
	cmd.Flags().BoolVar(&manual, "manual", false, "Only manually added entries")
	return cmd
}

func newRefreshCommand(client *agentClient) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Sync the flagged list from the community API now",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{Action: model.ActionRefreshFromAPI})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced, %d channels flagged\n", len(reply.Channels))
			return nil
		},
	}
}

func newSyncCommand(client *agentClient) *cobra.Command {
	return &cobra.Command{
		Use:       "sync on|off",
		Short:     "Enable or disable the scheduled community sync",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := args[0] == "on"
			if _, err := client.send(model.Message{
				Action:  model.ActionToggleAPISync,
				Enabled: &enabled,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "api sync %s\n", args[0])
			return nil
		},
	}
}

func newSettingsCommand(client *agentClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show warning settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{Action: model.ActionGetSettings})
			if err != nil {
				return err
			}
			s := reply.Settings
			if s == nil {
				return fmt.Errorf("agent returned no settings")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "channel header warning: %v\n", s.ShowChannelHeader)
			fmt.Fprintf(out, "video title warning:   %v\n", s.ShowVideoTitle)
			fmt.Fprintf(out, "voting widget:         %v\n", s.ShowVoting)
			fmt.Fprintf(out, "vote threshold:        %d\n", s.VoteThreshold)
			fmt.Fprintf(out, "api sync:              %v\n", s.APISyncEnabled)
			return nil
		},
	}
	cmd.AddCommand(newSettingsSetCommand(client))
	return cmd
}

func newSettingsSetCommand(client *agentClient) *cobra.Command {
	var header, title, votingWidget boolFlag
	var threshold int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update warning settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{Action: model.ActionGetSettings})
			if err != nil {
				return err
			}
			if reply.Settings == nil {
				return fmt.Errorf("agent returned no settings")
			}
			s := *reply.Settings

			if header.set {
				s.ShowChannelHeader = header.value
			}
			if title.set {
				s.ShowVideoTitle = title.value
			}
			if votingWidget.set {
				s.ShowVoting = votingWidget.value
			}
			if threshold > 0 {
				s.VoteThreshold = threshold
			}

			if _, err := client.send(model.Message{
				Action:   model.ActionUpdateSettings,
				Settings: &s,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "settings updated")
			return nil
		},
	}
	cmd.Flags().Var(&header, "header", "Show the channel header warning (true/false)")
	cmd.Flags().Var(&title, "title", "Show the video title warning (true/false)")
	cmd.Flags().Var(&votingWidget, "voting", "Show the voting widget (true/false)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Vote threshold for auto-flagging")
	return cmd
}

func newVotesCommand(client *agentClient) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <channel>",
		Short: "Show the community vote count for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{
				Action:    model.ActionGetChannelVotes,
				ChannelID: args[0],
			})
			if err != nil {
				return err
			}
			if reply.Votes == nil {
				return fmt.Errorf("agent returned no vote count")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d votes\n", args[0], *reply.Votes)
			return nil
		},
	}
}

func newVoteCommand(client *agentClient) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "vote <channel>",
		Short: "Vote a channel as likely AI content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.send(model.Message{
				Action:      model.ActionVoteChannel,
				ChannelID:   args[0],
				ChannelName: name,
			})
			if err != nil {
				return err
			}
			if reply.Votes == nil {
				return fmt.Errorf("agent returned no vote count")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voted, %s now at %d votes\n", args[0], *reply.Votes)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name to submit with the vote")
	return cmd
}

func newWatchCommand(client *agentClient) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Tail agent events (flag and settings changes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(client.baseURL + "/events")
			if err != nil {
				return fmt.Errorf("agent unreachable at %s (is it running?): %w", client.baseURL, err)
			}
			defer resp.Body.Close()

			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				line := scanner.Text()
				if strings.HasPrefix(line, "data: ") {
					fmt.Fprintln(cmd.OutOrStdout(), strings.TrimPrefix(line, "data: "))
				}
			}
			return scanner.Err()
		},
	}
}

// boolFlag is a tri-state bool so "not passed" is distinguishable from
// "set to false".
type boolFlag struct {
	set   bool
	value bool
}

func (b *boolFlag) String() string {
	if !b.set {
		return ""
	}
	return fmt.Sprintf("%v", b.value)
}

func (b *boolFlag) Set(s string) error {
	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		b.value = true
	case "false", "0", "off", "no":
		b.value = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	b.set = true
	return nil
}

func (b *boolFlag) Type() string { return "bool" }
