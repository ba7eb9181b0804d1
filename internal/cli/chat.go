package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchat"
	"github.com/hupe1980/agentchat/core"
)

func newChatCmd(g *globals) *cobra.Command {
	var (
		channel   string
		noContext bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agents of a channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, noContext, func(ctx context.Context, a *app) (*agentchat.Conversation, error) {
				conv, err := a.hub.OpenChannel(ctx, channel)
				if err != nil {
					return nil, err
				}
				name, description := channel, "N/A"
				if a.dir != nil {
					if c, ok := a.dir.Channel(channel); ok {
						name, description = c.Name, c.Description
					}
				} else if a.remote != nil {
					if c, err := a.remote.GetChannel(ctx, channel); err == nil {
						name, description = c.Name, c.Description
					}
				}

				p := g.printer(cmd)
				p.banner("Interactive Channel Chat")
				p.printf("\nChannel: %s\n", name)
				p.printf("Description: %s\n", description)
				p.printf("Channel ID: %s\n", channel)
				p.printf("\nContext inclusion: %s\n", enabled(conv.IncludeContext()))
				p.printf("Selected %d agent(s). Use /agents to change the selection.\n", len(conv.Participants()))
				p.println("\nType /help for available commands, /quit to exit")
				p.println(rule)
				p.println()
				return conv, nil
			})
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "general", "Channel ID")
	cmd.Flags().BoolVar(&noContext, "no-context", false, "Start with context inclusion disabled")
	return cmd
}

func newDMCmd(g *globals) *cobra.Command {
	var noContext bool
	cmd := &cobra.Command{
		Use:   "dm <agent>",
		Short: "Chat with a single agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := core.AgentID(args[0])
			return g.session(cmd, noContext, func(ctx context.Context, a *app) (*agentchat.Conversation, error) {
				conv, err := a.hub.OpenDirect(ctx, agent)
				if err != nil {
					return nil, err
				}
				info := a.agentInfo(agent)
				p := g.printer(cmd)
				p.banner("Direct Chat")
				p.printf("\nAgent: %s (%s)\n", info.DisplayName(), agent)
				if info.Role != "" {
					p.printf("Role: %s\n", info.Role)
				}
				p.printf("\nContext inclusion: %s\n", enabled(conv.IncludeContext()))
				p.println("\nType /help for available commands, /quit to exit")
				p.println(rule)
				p.println()
				return conv, nil
			})
		},
	}
	cmd.Flags().BoolVar(&noContext, "no-context", false, "Start with context inclusion disabled")
	return cmd
}

// session wires the app, opens a conversation and runs the REPL on it.
func (g *globals) session(cmd *cobra.Command, noContext bool, open func(context.Context, *app) (*agentchat.Conversation, error)) error {
	ctx := cmd.Context()
	if noContext {
		g.cfg.IncludeContext = false
	}
	a, err := newApp(ctx, g.cfg, newLogger(g.cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), g.cfg.CancelGrace+time.Second)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			a.log.Warn("shutdown incomplete", "error", err)
		}
	}()

	conv, err := open(ctx, a)
	if err != nil {
		return err
	}
	a.serveFeed(ctx, conv)

	newREPL(conv, cmd.InOrStdin(), g.printer(cmd), a.agentInfo).run(ctx)
	return nil
}
