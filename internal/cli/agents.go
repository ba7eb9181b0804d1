package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchat/directory"
)

func newAgentsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "agents [channel]",
		Short: "List agents, optionally only the members of a channel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := g.directoryOnly()
			if err != nil {
				return err
			}
			agents := dir.Agents()
			if len(args) == 1 {
				ids, err := dir.ListAgents(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				agents = agents[:0]
				for _, id := range ids {
					if a, ok := dir.Agent(id); ok {
						agents = append(agents, a)
					}
				}
			}
			if len(agents) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No agents.")
				return nil
			}
			agentTable(cmd.OutOrStdout(), agents, nil)
			return nil
		},
	}
}

func newChannelsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := g.directoryOnly()
			if err != nil {
				return err
			}
			channels := dir.Channels()
			if len(channels) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No channels.")
				return nil
			}
			channelTable(cmd.OutOrStdout(), channels)
			return nil
		},
	}
}

// directoryOnly loads the configured directory file, or the built-in demo
// directory when none is set.
func (g *globals) directoryOnly() (*directory.Static, error) {
	if g.cfg.DirectoryFile != "" {
		return directory.LoadFile(g.cfg.DirectoryFile)
	}
	return loadDemoDirectory()
}
