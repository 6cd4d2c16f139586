package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxInFlight is the maximum number of concurrent provider calls.
	// If 0, defaults to 1.
	MaxInFlight int64

	// RequestsPerSecond limits provider calls. If 0, unlimited.
	RequestsPerSecond float64

	// Burst is the number of calls allowed at once above RequestsPerSecond.
	// If 0, defaults to 1.
	Burst int

	// MemoryLimitBytes bounds the text held by documents being processed.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// IOLimitBytesPerSec is the maximum write throughput when saving.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller bounds the resources used by an ingestion run: provider
// concurrency, provider request rate, in-flight text and write throughput.
//
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Provider calls
	callSem     *semaphore.Weighted
	callLimiter *rate.Limiter // nil if unlimited

	// IO
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	c := &Controller{
		cfg:     cfg,
		callSem: semaphore.NewWeighted(cfg.MaxInFlight),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.RequestsPerSecond > 0 {
		c.callLimiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
// Requests larger than the limit are clamped to it.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, c.clamp(bytes)); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(c.clamp(bytes)) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(c.clamp(bytes))
	}
	c.memUsed.Add(-bytes)
}

func (c *Controller) clamp(bytes int64) int64 {
	return min(bytes, c.cfg.MemoryLimitBytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireCall reserves a provider call slot and waits for the rate limit.
// Blocks if all slots are busy.
func (c *Controller) AcquireCall(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.callSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.callLimiter != nil {
		if err := c.callLimiter.Wait(ctx); err != nil {
			c.callSem.Release(1)
			return err
		}
	}
	return nil
}

// TryAcquireCall attempts to reserve a provider call slot without blocking.
// The rate limit is not consulted.
func (c *Controller) TryAcquireCall() bool {
	if c == nil {
		return true
	}
	return c.callSem.TryAcquire(1)
}

// ReleaseCall releases a provider call slot.
func (c *Controller) ReleaseCall() {
	if c == nil {
		return
	}
	c.callSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
