package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
)

const (
	defaultBatch     = 10
	defaultBlock     = 5 * time.Second
	defaultClaimIdle = time.Minute
	readErrorBackoff = 2 * time.Second
)

type streamReader interface {
	EnsureGroup(ctx context.Context, stream, group string) error
	ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]redis.XMessage, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
	ClaimIdle(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]redis.XMessage, error)
}

// ConsumerParams configures a mail stream consumer.
type ConsumerParams struct {
	Reader    streamReader
	Sender    Sender
	Stream    string
	Group     string
	Consumer  string
	ClaimIdle time.Duration
	Block     time.Duration
	Metrics   *metrics.MailMetrics
	Logger    *logger.Logger
}

// Consumer reads mail jobs from the stream group and delivers them. A message
// is acknowledged only after a successful send; failures stay pending and are
// reclaimed once idle for ClaimIdle.
type Consumer struct {
	reader    streamReader
	sender    Sender
	stream    string
	group     string
	consumer  string
	claimIdle time.Duration
	block     time.Duration
	metrics   *metrics.MailMetrics
	logg      *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("stream reader required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Stream == "" || params.Group == "" || params.Consumer == "" {
		return nil, fmt.Errorf("stream, group and consumer names are required")
	}
	claimIdle := params.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = defaultClaimIdle
	}
	block := params.Block
	if block <= 0 {
		block = defaultBlock
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Consumer{
		reader:    params.Reader,
		sender:    params.Sender,
		stream:    params.Stream,
		group:     params.Group,
		consumer:  params.Consumer,
		claimIdle: claimIdle,
		block:     block,
		metrics:   params.Metrics,
		logg:      logg,
	}, nil
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.reader.EnsureGroup(ctx, c.stream, c.group); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"stream": c.stream, "group": c.group, "consumer": c.consumer})
	c.logg.Info(ctx, "mail.consumer.started")

	ticker := time.NewTicker(c.claimIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logg.Info(ctx, "mail.consumer.stopped")
			return nil
		case <-ticker.C:
			c.ClaimStalled(ctx)
		default:
		}

		if _, err := c.Poll(ctx); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				continue
			}
			c.logg.Error(ctx, "mail.consumer.read_failed", err)
			select {
			case <-ctx.Done():
			case <-time.After(readErrorBackoff):
			}
		}
	}
}

// Poll reads one batch of new messages and processes it, returning how many were acknowledged.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	msgs, err := c.reader.ReadGroup(ctx, c.stream, c.group, c.consumer, defaultBatch, c.block)
	if err != nil {
		return 0, err
	}
	return c.process(ctx, msgs), nil
}

// ClaimStalled takes over messages another consumer left pending for too long.
func (c *Consumer) ClaimStalled(ctx context.Context) int {
	msgs, err := c.reader.ClaimIdle(ctx, c.stream, c.group, c.consumer, c.claimIdle, defaultBatch)
	if err != nil {
		c.logg.Error(ctx, "mail.consumer.claim_failed", err)
		return 0
	}
	return c.process(ctx, msgs)
}

func (c *Consumer) process(ctx context.Context, msgs []redis.XMessage) int {
	acked := 0
	for _, msg := range msgs {
		msgCtx := c.logg.WithField(ctx, "message_id", msg.ID)
		if err := c.handle(msgCtx, msg); err != nil {
			if errors.Is(err, errPoison) {
				c.logg.Warn(c.logg.WithField(msgCtx, "error", err.Error()), "mail.consumer.dropped_malformed")
			} else {
				c.metrics.IncFailed(c.sender.Name())
				c.logg.Error(msgCtx, "mail.consumer.send_failed", err)
				continue
			}
		} else {
			c.metrics.IncDelivered(c.sender.Name())
		}
		if err := c.reader.Ack(ctx, c.stream, c.group, msg.ID); err != nil {
			c.logg.Error(msgCtx, "mail.consumer.ack_failed", err)
			continue
		}
		acked++
	}
	return acked
}

var errPoison = errors.New("malformed mail message")

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) error {
	v, err := decodeVerification(msg.Values)
	if err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	rendered, err := RenderVerification(v)
	if err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	return c.sender.Send(ctx, rendered)
}
