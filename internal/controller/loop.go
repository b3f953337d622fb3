package controller

import (
	"context"
	"time"

	"github.com/zeusync/arview/internal/core/observability/log"
)

// Command runs on the controller goroutine.
type Command func(c *Controller)

// Submit queues cmd for the next tick without blocking.
func (c *Controller) Submit(cmd Command) error {
	select {
	case c.commands <- cmd:
		return nil
	default:
		c.logger.Warn("command dropped", log.Int("queue_size", cap(c.commands)))
		return ErrQueueFull
	}
}

// Do queues fn and waits for its result.
func (c *Controller) Do(ctx context.Context, fn func(c *Controller) error) error {
	if !c.running.Load() {
		return ErrStopped
	}
	done := make(chan error, 1)
	if err := c.Submit(func(c *Controller) { done <- fn(c) }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the command queue once per tick until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	c.running.Store(true)
	defer c.running.Store(false)

	ticker := time.NewTicker(time.Second / time.Duration(c.cfg.TickRate))
	defer ticker.Stop()

	c.logger.Info("controller started", log.Int("tick_rate", c.cfg.TickRate))
	c.Flush()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("controller stopped")
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick applies the commands queued so far, in arrival order, then flushes.
func (c *Controller) Tick() {
	for n := len(c.commands); n > 0; n-- {
		cmd := <-c.commands
		cmd(c)
	}
	c.Flush()
}
