package command

import (
	"context"

	"go.uber.org/zap"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/rules"
)

// EndGame implements the EndGame processor (spec.md §4.7): unschedule
// the pending timeout, end the game, persist, commit. No bus event is
// required here — the surrounding service that requested the end
// (disqualification) produces its own notification.
func (p *Processors) EndGame(ctx context.Context, cmd EndGameCommand) error {
	tx := p.store.Begin(ctx)

	game, err := tx.ByID(cmd.GameID, true)
	if err != nil {
		tx.Rollback()
		return err
	}
	if game == nil {
		tx.Rollback()
		return apperr.Wrap(apperr.ErrGameDoesNotExist, "command: end game", nil)
	}

	oldStateID := game.StateID
	rules.EndGame(game)

	if err := tx.Update(*game); err != nil {
		tx.Rollback()
		return err
	}

	if err := p.unscheduleTimeout(ctx, oldStateID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	p.logger.Info("game ended by disqualification",
		zap.String("game_id", game.ID.Hex()),
		zap.String("operation_id", cmd.OperationID),
	)
	return nil
}
