// Package transport is the NATS JetStream ingress side: durable
// pull-consumers on the subjects spec.md §6 lists, decoding each
// message's JSON body into a command package command struct and
// dispatching it to a bounded worker pool ahead of the C7 processors.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"connectfour-engine/internal/command"
	"connectfour-engine/internal/model"
)

// Ingress subjects, unchanged from spec.md §6.
const (
	SubjectGameCreated        = "connection_hub.connect_four.game.created"
	SubjectGamePlayerDisqual  = "connection_hub.connect_four.game.player_disqualified"
	SubjectMoveWasMade        = "api_gateway.connect_four.game.move_was_made"
)

// Dispatcher is the subset of command.Processors the consumer needs;
// narrowed to an interface so tests can inject a fake without wiring a
// real store/bus/scheduler/relay stack.
type Dispatcher interface {
	CreateGame(ctx context.Context, cmd command.CreateGameCommand) error
	EndGame(ctx context.Context, cmd command.EndGameCommand) error
	MakeMove(ctx context.Context, cmd command.MakeMoveCommand) error
}

// Consumer pulls from one durable per subject and dispatches each
// delivery onto a bounded pool of goroutines (spec.md §5's "worker pool
// per transport"), generalizing the teacher's one-goroutine-per-job boot
// sequence into N goroutines pulling one job queue.
type Consumer struct {
	stream          jetstream.Stream
	dispatcher      Dispatcher
	logger          *zap.Logger
	poolSize        int
	commandDeadline time.Duration
}

func NewConsumer(stream jetstream.Stream, dispatcher Dispatcher, logger *zap.Logger, poolSize int, commandDeadline time.Duration) *Consumer {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Consumer{
		stream:          stream,
		dispatcher:      dispatcher,
		logger:          logger,
		poolSize:        poolSize,
		commandDeadline: commandDeadline,
	}
}

// Run creates (or binds to) one durable consumer per ingress subject and
// blocks, fanning deliveries out across the worker pool, until ctx is
// done.
func (c *Consumer) Run(ctx context.Context) error {
	subjects := []struct {
		subject string
		handle  func(context.Context, []byte) error
	}{
		{SubjectGameCreated, c.handleCreateGame},
		{SubjectGamePlayerDisqual, c.handleEndGame},
		{SubjectMoveWasMade, c.handleMakeMove},
	}

	var wg sync.WaitGroup
	for _, s := range subjects {
		cons, err := c.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
			Durable:       durableNameFor(s.subject),
			FilterSubject: s.subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
		})
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(cons jetstream.Consumer, handle func(context.Context, []byte) error, subject string) {
			defer wg.Done()
			c.consumeSubject(ctx, cons, handle, subject)
		}(cons, s.handle, s.subject)
	}
	wg.Wait()
	return nil
}

func durableNameFor(subject string) string {
	out := make([]byte, 0, len(subject))
	for _, ch := range subject {
		if ch == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, byte(ch))
	}
	return string(out)
}

// consumeSubject runs a bounded worker pool over a single subject's
// pull-consumer, matching the "N goroutines pulling one job queue" shape
// spec.md §5 requires per transport.
func (c *Consumer) consumeSubject(ctx context.Context, cons jetstream.Consumer, handle func(context.Context, []byte) error, subject string) {
	msgs := make(chan jetstream.Msg)

	var wg sync.WaitGroup
	for i := 0; i < c.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgs {
				c.process(ctx, msg, handle, subject)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			close(msgs)
			wg.Wait()
			return
		default:
		}

		batch, err := cons.Fetch(c.poolSize, jetstream.FetchMaxWait(time.Second))
		if err != nil {
			c.logger.Warn("consumer fetch failed", zap.String("subject", subject), zap.Error(err))
			continue
		}
		for msg := range batch.Messages() {
			select {
			case msgs <- msg:
			case <-ctx.Done():
				close(msgs)
				wg.Wait()
				return
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg jetstream.Msg, handle func(context.Context, []byte) error, subject string) {
	cctx, cancel := context.WithTimeout(ctx, c.commandDeadline)
	defer cancel()

	if err := handle(cctx, msg.Data()); err != nil {
		c.logger.Error("command processing failed", zap.String("subject", subject), zap.Error(err))
		msg.Nak()
		return
	}
	msg.Ack()
}

type playerPayload struct {
	ID                string `json:"id"`
	Time              string `json:"time"`
	CommunicationType string `json:"communication_type"`
}

func (pp playerPayload) toSpec() (command.PlayerSpec, error) {
	id, err := model.ParseUserId(pp.ID)
	if err != nil {
		return command.PlayerSpec{}, err
	}
	d, err := parseDuration(pp.Time)
	if err != nil {
		return command.PlayerSpec{}, err
	}
	return command.PlayerSpec{
		UserID:            id,
		TimeLeft:          d,
		CommunicationType: model.CommunicationType(pp.CommunicationType),
	}, nil
}

type createGamePayload struct {
	GameID      string        `json:"game_id"`
	LobbyID     string        `json:"lobby_id"`
	FirstPlayer playerPayload `json:"first_player"`
	SecondPlayer playerPayload `json:"second_player"`
	CreatedAt   time.Time     `json:"created_at"`
	OperationID string        `json:"operation_id"`
}

func (c *Consumer) handleCreateGame(ctx context.Context, data []byte) error {
	var payload createGamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	gameID, err := model.ParseGameId(payload.GameID)
	if err != nil {
		return err
	}
	lobbyID, err := model.ParseLobbyId(payload.LobbyID)
	if err != nil {
		return err
	}
	first, err := payload.FirstPlayer.toSpec()
	if err != nil {
		return err
	}
	second, err := payload.SecondPlayer.toSpec()
	if err != nil {
		return err
	}

	return c.dispatcher.CreateGame(ctx, command.CreateGameCommand{
		GameID:       gameID,
		LobbyID:      lobbyID,
		FirstPlayer:  first,
		SecondPlayer: second,
		CreatedAt:    payload.CreatedAt,
		OperationID:  payload.OperationID,
	})
}

type endGamePayload struct {
	GameID      string `json:"game_id"`
	OperationID string `json:"operation_id"`
}

func (c *Consumer) handleEndGame(ctx context.Context, data []byte) error {
	var payload endGamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	gameID, err := model.ParseGameId(payload.GameID)
	if err != nil {
		return err
	}
	return c.dispatcher.EndGame(ctx, command.EndGameCommand{
		GameID:      gameID,
		OperationID: payload.OperationID,
	})
}

type makeMovePayload struct {
	CurrentUserID string `json:"current_user_id"`
	GameID        string `json:"game_id"`
	Column        int    `json:"column"`
	OperationID   string `json:"operation_id"`
}

func (c *Consumer) handleMakeMove(ctx context.Context, data []byte) error {
	var payload makeMovePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	userID, err := model.ParseUserId(payload.CurrentUserID)
	if err != nil {
		return err
	}
	gameID, err := model.ParseGameId(payload.GameID)
	if err != nil {
		return err
	}
	return c.dispatcher.MakeMove(ctx, command.MakeMoveCommand{
		CurrentUserID: userID,
		GameID:        gameID,
		Column:        payload.Column,
		OperationID:   payload.OperationID,
	})
}
