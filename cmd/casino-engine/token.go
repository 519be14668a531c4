package main

import (
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/auth"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		player  game.Player
		admin   bool
		expires time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to issue tokens in production")
			}
			if player.ID == "" {
				player.ID = uuid.NewString()
			}
			if expires <= 0 {
				expires = cfg.JWT.Expiration
			}
			token, err := auth.GenerateToken(cfg.JWT.Secret, player, admin, expires)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&player.ID, "player", "", "Player id (random when empty)")
	cmd.Flags().StringVar(&player.Username, "username", "player", "Display name")
	cmd.Flags().StringVar(&player.Address, "wallet", "", "Wallet address payouts settle to")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant operator routes")
	cmd.Flags().DurationVar(&expires, "expires", 0, "Lifetime (defaults to jwt.expiration)")
	return cmd
}
