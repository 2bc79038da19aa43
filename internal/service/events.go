package service

import (
	"context"
	"errors"

	"asset-ledger/internal/core/domain"
	"asset-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// BalanceFanout delivers one balance change to every configured publisher.
// A failing publisher does not stop delivery to the others.
type BalanceFanout struct {
	publishers []ports.BalancePublisher
}

// NewBalanceFanout creates a fan-out over publishers. Zero publishers is a no-op sink.
func NewBalanceFanout(publishers ...ports.BalancePublisher) *BalanceFanout {
	return &BalanceFanout{publishers: publishers}
}

func (f *BalanceFanout) PublishBalanceChanged(ctx context.Context, event domain.WalletBalanceChanged) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishBalanceChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log. It stands in for a push or
// email channel.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.log.Info().
		Str("user_id", msg.UserID.String()).
		Str("kind", msg.Kind).
		Str("title", msg.Title).
		Msg(msg.Body)
	return nil
}
