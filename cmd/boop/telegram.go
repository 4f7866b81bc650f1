package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsaristov/boop-final-prototype/internal/channels"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		token := a.cfg.Channels.Telegram.Token
		if token == "" {
			return fmt.Errorf("no telegram token configured (set channels.telegram.token or TELEGRAM_BOT_TOKEN)")
		}

		if a.condenser != nil {
			if err := a.condenser.Start(); err != nil {
				return err
			}
		}

		bridge, err := channels.NewTelegramBridge(token, a.dispatcher)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
