package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"connectfour-engine/internal/command"
	"connectfour-engine/internal/model"
)

func newEndGameCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "end-game",
		Short: "End a game directly, bypassing the message bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := model.ParseGameId(id)
			if err != nil {
				return fmt.Errorf("end-game: --id: %w", err)
			}

			ctx := context.Background()
			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			return a.processors.EndGame(ctx, command.EndGameCommand{
				GameID:      gameID,
				OperationID: model.NewGameStateId().Hex(),
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "game id (hex)")
	cmd.MarkFlagRequired("id")

	return cmd
}
