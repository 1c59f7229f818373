package notify

import (
	"context"
	"sync"
	"time"

	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// DefaultDuration is the toast display time applied when a notification
// arrives without one.
const DefaultDuration = 5 * time.Second

// Center fans notifications out to registered sinks and wraps task
// execution so failures surface as error toasts instead of propagating.
type Center struct {
	mu    sync.Mutex
	sinks []schema.NotificationSink
	log   pslog.Logger
}

// New constructs a Center.
func New(logger pslog.Logger) *Center {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Center{log: logger}
}

// Register adds a sink. Nil sinks are ignored.
func (c *Center) Register(sink schema.NotificationSink) {
	if sink == nil {
		return
	}
	c.mu.Lock()
	c.sinks = append(c.sinks, sink)
	c.mu.Unlock()
}

// Notify delivers the notification to every sink.
func (c *Center) Notify(n schema.Notification) {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}
	c.mu.Lock()
	sinks := append([]schema.NotificationSink(nil), c.sinks...)
	c.mu.Unlock()
	for _, sink := range sinks {
		sink.Notify(n)
	}
	c.log.Debug("notification dispatched", "type", n.Type, "title", n.Title, "sinks", len(sinks))
}

// Run executes fn, routing failure to the sinks as an error toast. The
// error is still returned for callers that care; most drop it.
func (c *Center) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		c.log.Warn("task failed", "task", title, "err", err)
		c.Notify(schema.Notification{
			Type:    schema.NotifyError,
			Title:   title,
			Message: err.Error(),
		})
		return err
	}
	return nil
}

// Go runs fn on its own goroutine with Run's error handling and posts a
// success toast when message is non-empty.
func (c *Center) Go(ctx context.Context, title, message string, fn func(context.Context) error) {
	go func() {
		if err := c.Run(ctx, title, fn); err != nil {
			return
		}
		if message != "" {
			c.Notify(schema.Notification{
				Type:    schema.NotifySuccess,
				Title:   title,
				Message: message,
			})
		}
	}()
}

// LogSink writes notifications to the structured log. It backs headless
// hosts where no toast surface exists.
type LogSink struct {
	Log pslog.Logger
}

// Notify implements schema.NotificationSink.
func (s LogSink) Notify(n schema.Notification) {
	log := s.Log
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	switch n.Type {
	case schema.NotifyError:
		log.Warn("notification", "title", n.Title, "message", n.Message)
	default:
		log.Info("notification", "title", n.Title, "message", n.Message)
	}
}
