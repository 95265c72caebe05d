package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const orderSequenceCounter = "order-number"

type sequenceStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

type orderCounter interface {
	Count(ctx context.Context) (int64, error)
}

// numberGenerator issues ORD-<last 8 digits of epoch ms>-<seq>. The sequence comes from a
// shared Redis counter; without Redis it falls back to the order count.
type numberGenerator struct {
	seq    sequenceStore
	orders orderCounter
	logg   *logger.Logger
	now    func() time.Time
}

func (g *numberGenerator) Next(ctx context.Context) (string, error) {
	seq, err := g.sequence(ctx)
	if err != nil {
		return "", err
	}
	return formatOrderNumber(g.now(), seq), nil
}

func (g *numberGenerator) sequence(ctx context.Context) (int64, error) {
	if g.seq != nil {
		n, err := g.seq.Incr(ctx, g.seq.CounterKey(orderSequenceCounter))
		if err == nil {
			return n, nil
		}
		if g.logg != nil {
			g.logg.Warn(g.logg.WithField(ctx, "error", err.Error()), "order sequence unavailable, falling back to order count")
		}
	}
	count, err := g.orders.Count(ctx)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func formatOrderNumber(now time.Time, seq int64) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("ORD-%s-%04d", ms, seq)
}
