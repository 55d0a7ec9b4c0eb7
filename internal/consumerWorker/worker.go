package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/dabidkayl/metro-backend/internal/dto"
	"github.com/dabidkayl/metro-backend/internal/mailer"
	"github.com/dabidkayl/metro-backend/internal/rabbit"

	"github.com/wb-go/wbf/zlog"
)

// Reader drains the notification queue and emails affected users.
type Reader struct {
	RMQ    *rabbit.Client
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.NotificationMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Int("user_id", msg.UserID).
				Str("kind", msg.Kind).
				Msg("Received notification message")

			if msg.Email == "" {
				zlog.Logger.Warn().
					Int("user_id", msg.UserID).
					Msg("notification without recipient email, dropping")
				return nil
			}

			if err := r.mail.Send(msg.Email, msg.Subject, msg.Body); err != nil {
				zlog.Logger.Warn().
					Err(err).
					Int("user_id", msg.UserID).
					Msg("Failed to send notification e-mail")
			}

			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
