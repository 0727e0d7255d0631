package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

func (c *Client) EnqueueStockAlert(ctx context.Context, payload StockAlertPayload) error {
	if c == nil {
		return nil
	}
	task, err := NewStockAlertTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
