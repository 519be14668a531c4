package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/logging"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
	"github.com/Digital-Creators-Team/casino-engine/wire"
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Work with won-but-unpaid rounds",
	}

	var filter reconcile.Filter
	list := &cobra.Command{
		Use:   "list",
		Short: "List unpaid rounds from the reconciliation store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("postgres.dsn is not configured")
			}
			ctx := cmd.Context()
			store, err := reconcile.NewPostgresStore(ctx, cfg.Postgres.DSN, logging.New(cfg.Logging))
			if err != nil {
				return err
			}
			defer store.Close()

			rounds, err := store.List(ctx, filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ROUND\tPLAYER\tGAME\tPAYOUT\tADDRESS\tREASON\tCREATED")
			for _, r := range rounds {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.RoundID, r.PlayerID, r.Game, r.Payout.String(), r.Address, r.Reason, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&filter.PlayerID, "player", "", "Only this player")
	list.Flags().BoolVar(&filter.IncludeResolved, "all", false, "Include resolved rounds")
	list.Flags().Uint64Var(&filter.Limit, "limit", 50, "Maximum rows")

	var signature string
	resolve := &cobra.Command{
		Use:   "resolve <round-id>",
		Short: "Mark an unpaid round as paid out manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("postgres.dsn is not configured")
			}
			ctx := cmd.Context()
			store, err := reconcile.NewPostgresStore(ctx, cfg.Postgres.DSN, logging.New(cfg.Logging))
			if err != nil {
				return err
			}
			defer store.Close()
			return store.MarkResolved(ctx, args[0], signature)
		},
	}
	resolve.Flags().StringVar(&signature, "signature", "", "Signature of the manual payout")

	var purge bool
	resetRound := &cobra.Command{
		Use:   "reset-round <player-id> <game>",
		Short: "Clear a round a player cannot reset, booking its stake as unpaid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis.addr is not configured")
			}
			svc, cleanup, err := wire.InitializeRecovery(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := svc.RecoverRound(cmd.Context(), args[0], game.Kind(args[1]), purge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s is %s (spins %d, purged %v)\n",
				state.PlayerID, state.Kind, state.State, state.Stats.Spins, purge)
			return nil
		},
	}
	resetRound.Flags().BoolVar(&purge, "purge", false, "Delete the stored state, statistics included")

	cmd.AddCommand(list, resolve, resetRound)
	return cmd
}
