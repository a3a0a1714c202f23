package command

import (
	"context"

	"go.uber.org/zap"

	"connectfour-engine/internal/apperr"
	"connectfour-engine/internal/model"
	"connectfour-engine/internal/rules"
)

// MakeMove implements the MakeMove processor (spec.md §4.7). A rejected
// move still writes the game back (unchanged: rules.MakeMove rejects
// before touching the board or the clock) and publishes the rejection
// event, but never touches the scheduler: the
// game's stateId is unchanged on rejection, so the timeout already
// scheduled against it is still the correct one.
func (p *Processors) MakeMove(ctx context.Context, cmd MakeMoveCommand) error {
	tx := p.store.Begin(ctx)

	game, err := tx.ByID(cmd.GameID, true)
	if err != nil {
		tx.Rollback()
		return err
	}
	if game == nil {
		tx.Rollback()
		return apperr.Wrap(apperr.ErrGameDoesNotExist, "command: make move", nil)
	}

	oldStateID := game.StateID
	result := rules.MakeMove(game, cmd.CurrentUserID, cmd.Column, p.now())

	if err := tx.Update(*game); err != nil {
		tx.Rollback()
		return err
	}

	stateChanged := game.StateID != oldStateID
	if stateChanged {
		if err := p.unscheduleTimeout(ctx, oldStateID); err != nil {
			tx.Rollback()
			return err
		}
	}
	if result.Kind == model.MoveResultAccepted && game.Status == model.StatusInProgress {
		if err := p.scheduleTimeout(ctx, game, cmd.OperationID); err != nil {
			tx.Rollback()
			return err
		}
	}

	event := eventForMoveResult(game.ID, cmd.OperationID, result)
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

	p.logger.Info("move processed",
		zap.String("game_id", game.ID.Hex()),
		zap.String("operation_id", cmd.OperationID),
		zap.String("result", string(result.Kind)),
	)
	return nil
}
