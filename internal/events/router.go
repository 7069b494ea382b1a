package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Handler consumes one decoded event
type Handler func(ctx context.Context, event *Event) error

// Router dispatches bus messages to handlers by event type
type Router struct {
	router      *message.Router
	subscriber  message.Subscriber
	topicPrefix string
	logger      *slog.Logger
}

func NewRouter(subscriber message.Subscriber, topicPrefix string, logger *slog.Logger) (*Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)

	return &Router{
		router:      router,
		subscriber:  subscriber,
		topicPrefix: topicPrefix,
		logger:      logger,
	}, nil
}

// Handle registers h for every event of eventType
func (r *Router) Handle(name, eventType string, h Handler) {
	r.router.AddNoPublisherHandler(name, r.topicPrefix+eventType, r.subscriber, func(msg *message.Message) error {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			// A malformed payload will never decode; ack and drop it
			r.logger.Error("Dropping malformed event", "message_id", msg.UUID, "error", err)
			return nil
		}
		return h(msg.Context(), &event)
	})
}

// Run blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

func (r *Router) Close() error {
	return r.router.Close()
}
