package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/crosstalk-io/crosstalk/internal/config"
	"github.com/crosstalk-io/crosstalk/internal/conversation"
	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
	"github.com/crosstalk-io/crosstalk/internal/relay"
	"github.com/crosstalk-io/crosstalk/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a conversation",
	Long: `Run a conversation between the configured agents.

By default a terminal dashboard shows each agent's activity lamps,
message rates, and floor statistics above a live transcript. With
--headless the conversation runs without a display and logs to stderr,
which suits long unattended runs and piping the relay elsewhere.`,
	RunE: runConversation,
}

var headless bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSlice("agents", nil, "participant ids (at least two)")
	runCmd.Flags().Duration("duration", 0, "end the run after this long (0 = until interrupted)")
	runCmd.Flags().Int64("seed", 0, "random seed for reproducible runs (0 = from clock)")
	runCmd.Flags().String("listen", "", "websocket relay address (empty = relay disabled)")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run without the dashboard")

	_ = viper.BindPFlag("conversation.agents", runCmd.Flags().Lookup("agents"))
	_ = viper.BindPFlag("conversation.duration", runCmd.Flags().Lookup("duration"))
	_ = viper.BindPFlag("conversation.seed", runCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("relay.listen", runCmd.Flags().Lookup("listen"))
}

func runConversation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The dashboard needs a terminal; without one fall back to headless.
	useDashboard := !headless && term.IsTerminal(int(os.Stdout.Fd()))

	// The dashboard owns the screen, so log lines must go to a file.
	logPath := cfg.Log.File
	if useDashboard && logPath == "" {
		logPath = filepath.Join(config.ConfigDir(), "crosstalk.log")
	}
	log, err := logging.New(logPath, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return errors.Wrap(err, "failed to open log")
	}
	defer log.Close()

	bus := event.NewBus()

	runner, err := conversation.New(bus, log, conversation.FromConfig(cfg))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Relay.Listen != "" {
		srv := relay.New(bus, log, cfg.Relay.Listen, cfg.Relay.AllowedOrigins)
		if err := srv.Start(ctx); err != nil {
			return errors.Wrapf(err, "failed to start relay on %s", cfg.Relay.Listen)
		}
		defer srv.Stop()
	}

	// Live reload swaps the probability tunables into the running
	// conversation; structural changes require a restart.
	config.Watch(log, runner.Apply)

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	if !useDashboard {
		log.Info("running headless", "agents", cfg.Conversation.Agents)
		<-runner.Done()
		return nil
	}

	app := tui.New(bus, runner.Agents())
	if err := app.Run(); err != nil {
		return errors.Wrap(err, "dashboard error")
	}
	return nil
}
