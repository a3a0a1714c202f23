package command

import (
	"context"

	"go.uber.org/zap"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
	"connectfour-engine/internal/rules"
)

// TryToLoseByTime implements the TryToLoseByTime processor (spec.md
// §4.7, §4.8). It is the TaskRunner's only command: a stale task (one
// whose expected state no longer matches the game) is silently a no-op,
// not an error — the scheduler backend is assumed to fire tasks at most
// approximately on time, and this is what makes that safe.
func (p *Processors) TryToLoseByTime(ctx context.Context, cmd TryToLoseByTimeCommand) error {
	tx := p.store.Begin(ctx)

	game, err := tx.ByID(cmd.GameID, true)
	if err != nil {
		tx.Rollback()
		return err
	}
	if game == nil {
		tx.Rollback()
		return apperr.Wrap(apperr.ErrGameDoesNotExist, "command: try to lose by time", nil)
	}

	applied := rules.TryToLoseByTime(game, cmd.GameStateID)
	if !applied {
		tx.Rollback()
		p.logger.Debug("stale try_to_lose_by_time task, no-op",
			zap.String("game_id", game.ID.Hex()),
			zap.String("expected_state_id", cmd.GameStateID.Hex()),
			zap.String("current_state_id", game.StateID.Hex()),
		)
		return nil
	}

	if err := tx.Update(*game); err != nil {
		tx.Rollback()
		return err
	}

	loc := (*model.ChipLocation)(nil)
	event := model.NewGameEndedEvent(game.ID, cmd.OperationID, model.EndReasonLossByTime, loc)
	if err := p.bus.Publish(ctx, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := p.publishRelay(ctx, game, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	p.logger.Info("game ended by time",
		zap.String("game_id", game.ID.Hex()),
		zap.String("operation_id", cmd.OperationID),
	)
	return nil
}
