package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/recall-agent/recall/pkg/log"
	"github.com/recall-agent/recall/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the interactive chat",
	Long:  `Initializes storage, the LLM provider, tools, and memory services, then opens the readline chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting recall")

		services := NewServices(ctx, stop)

		srv.StartServices(ctx, services)

		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("recall has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
