package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"connectfour-engine/internal/command"
	"connectfour-engine/internal/model"
)

func newCreateGameCmd() *cobra.Command {
	var (
		id                        string
		lobbyID                   string
		firstPlayerID             string
		firstPlayerTime           time.Duration
		firstPlayerCommunication  string
		secondPlayerID            string
		secondPlayerTime          time.Duration
		secondPlayerCommunication string
	)

	cmd := &cobra.Command{
		Use:   "create-game",
		Short: "Create a game directly, bypassing the message bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := model.ParseGameId(id)
			if err != nil {
				return fmt.Errorf("create-game: --id: %w", err)
			}
			lobby, err := model.ParseLobbyId(lobbyID)
			if err != nil {
				return fmt.Errorf("create-game: --lobby-id: %w", err)
			}
			first, err := model.ParseUserId(firstPlayerID)
			if err != nil {
				return fmt.Errorf("create-game: --first-player-id: %w", err)
			}
			second, err := model.ParseUserId(secondPlayerID)
			if err != nil {
				return fmt.Errorf("create-game: --second-player-id: %w", err)
			}

			ctx := context.Background()
			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			createCmd := command.CreateGameCommand{
				GameID:  gameID,
				LobbyID: lobby,
				FirstPlayer: command.PlayerSpec{
					UserID:            first,
					TimeLeft:          firstPlayerTime,
					CommunicationType: model.CommunicationType(firstPlayerCommunication),
				},
				SecondPlayer: command.PlayerSpec{
					UserID:            second,
					TimeLeft:          secondPlayerTime,
					CommunicationType: model.CommunicationType(secondPlayerCommunication),
				},
				CreatedAt:   time.Now().UTC(),
				OperationID: model.NewGameStateId().Hex(),
			}

			return a.processors.CreateGame(ctx, createCmd)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "game id (hex)")
	cmd.Flags().StringVar(&lobbyID, "lobby-id", "", "lobby id (hex)")
	cmd.Flags().StringVar(&firstPlayerID, "first-player-id", "", "first player's user id (hex)")
	cmd.Flags().DurationVar(&firstPlayerTime, "first-player-time", 0, "first player's starting clock")
	cmd.Flags().StringVar(&firstPlayerCommunication, "first-player-communication", "other", "relay|other")
	cmd.Flags().StringVar(&secondPlayerID, "second-player-id", "", "second player's user id (hex)")
	cmd.Flags().DurationVar(&secondPlayerTime, "second-player-time", 0, "second player's starting clock")
	cmd.Flags().StringVar(&secondPlayerCommunication, "second-player-communication", "other", "relay|other")

	for _, name := range []string{"id", "lobby-id", "first-player-id", "second-player-id"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}
