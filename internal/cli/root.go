package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchat/config"
)

// globals are the persistent flags shared by every command.
type globals struct {
	envFile    string
	directory  string
	backend    string
	transcript string
	feedAddr   string
	logLevel   string
	noColor    bool

	cfg *config.Config
}

// NewRootCmd builds the agentchat command tree.
func NewRootCmd(version string) *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "agentchat",
		Short:        "Ask one question, collect answers from many agents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	flags.StringVar(&g.directory, "directory", "", "Agent directory YAML file (env: AGENTCHAT_DIRECTORY)")
	flags.StringVar(&g.backend, "backend", "", "Answer backend: knowledge, echo, openai, anthropic, a4s (env: AGENTCHAT_BACKEND)")
	flags.StringVar(&g.transcript, "transcript", "", "Persist transcripts in this badger directory (env: AGENTCHAT_TRANSCRIPT_PATH)")
	flags.StringVar(&g.feedAddr, "feed-addr", "", "Serve the transcript WebSocket feed on this address (env: AGENTCHAT_FEED_ADDR)")
	flags.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: AGENTCHAT_LOG_LEVEL)")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable coloured output")

	cmd.AddCommand(newChatCmd(g))
	cmd.AddCommand(newDMCmd(g))
	cmd.AddCommand(newAgentsCmd(g))
	cmd.AddCommand(newChannelsCmd(g))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

func (g *globals) load(cmd *cobra.Command) error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("directory") {
		cfg.DirectoryFile = g.directory
	}
	if flags.Changed("backend") {
		cfg.Backend = g.backend
	}
	if flags.Changed("transcript") {
		cfg.TranscriptPath = g.transcript
	}
	if flags.Changed("feed-addr") {
		cfg.FeedAddr = g.feedAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

func (g *globals) printer(cmd *cobra.Command) printer {
	return printer{out: cmd.OutOrStdout(), colour: !g.noColor}
}
