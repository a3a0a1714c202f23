package command

import (
	"context"

	"go.uber.org/zap"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
	"connectfour-engine/internal/relay"
	"connectfour-engine/internal/rules"
	"connectfour-engine/internal/store"
)

// CreateGame implements the CreateGame processor (spec.md §4.7): reject
// a duplicate id, look up the most recent previous meeting between the
// pair for the rematch color swap, create, persist, announce on the bus
// and, if either player uses the relay, on the lobby channel.
func (p *Processors) CreateGame(ctx context.Context, cmd CreateGameCommand) error {
	tx := p.store.Begin(ctx)

	existing, err := tx.ByID(cmd.GameID, true)
	if err != nil {
		tx.Rollback()
		return err
	}
	if existing != nil {
		tx.Rollback()
		return apperr.Wrap(apperr.ErrGameAlreadyExists, "command: create game", nil)
	}

	lastGame, err := p.lookupLastGame(tx, cmd.FirstPlayer.UserID, cmd.SecondPlayer.UserID)
	if err != nil {
		tx.Rollback()
		return err
	}

	game := rules.Create(
		cmd.GameID,
		cmd.FirstPlayer.UserID, cmd.SecondPlayer.UserID,
		cmd.FirstPlayer.TimeLeft, cmd.SecondPlayer.TimeLeft,
		cmd.FirstPlayer.CommunicationType, cmd.SecondPlayer.CommunicationType,
		cmd.CreatedAt, lastGame,
	)

	if err := tx.Save(game); err != nil {
		tx.Rollback()
		return err
	}

	event := model.NewGameCreatedEvent(game.ID, cmd.OperationID)
	if err := p.bus.Publish(ctx, event); err != nil {
		tx.Rollback()
		return err
	}

	if wantsRelay(game.Players) {
		channel := relay.LobbyChannel(cmd.LobbyID.Hex())
		payload := relayPayload{Type: string(model.EventGameCreated), GameID: game.ID.Hex()}
		if err := p.relay.Publish(ctx, channel, payload); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	p.logger.Info("game created",
		zap.String("game_id", game.ID.Hex()),
		zap.String("operation_id", cmd.OperationID),
	)
	return nil
}

// lookupLastGame resolves "the most-recent previous game between the
// pair (descending by createdAt, limit 1)" the CreateGame processor
// passes to rules.Create for the color-swap rematch rule (spec.md §4.7).
func (p *Processors) lookupLastGame(tx store.Transaction, a, b model.UserId) (*model.Game, error) {
	games, err := tx.ListByPlayerIds([2]model.UserId{a, b}, store.SortByDescCreatedAt, 1)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}
