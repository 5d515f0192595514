package commands

import (
	"context"
	"errors"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps command execution with the shared toolchain concerns: validation,
// timeouts, logging, error categorisation and telemetry.
type Handler[T command.Message] struct {
	exec          command.CommandFunc[T]
	logger        interfaces.Logger
	timeout       time.Duration
	operation     string
	messageFields func(T) map[string]any
	telemetry     Telemetry[T]
	now           func() time.Time
}

// NewHandler creates a handler that satisfies go-command's Commander interface.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}

	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	fields := map[string]any{
		"command": command.GetMessageType(msg),
	}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.messageFields != nil {
		maps.Copy(fields, h.messageFields(msg))
	}
	logger := logging.WithFields(h.logger, fields)

	if err := ctx.Err(); err != nil {
		err = wrapContextError(err)
		h.report(ctx, msg, fields, 0, err, TelemetryStatusContextError, logger)
		return err
	}

	logger.Debug("command.execute.start")
	start := h.now()
	err := h.exec(ctx, msg)
	duration := h.now().Sub(start)

	switch {
	case err != nil && isContextError(err):
		err = wrapContextError(err)
		h.report(ctx, msg, fields, duration, err, TelemetryStatusContextError, logger)
		return err
	case err != nil:
		err = wrapExecuteError(err)
		h.report(ctx, msg, fields, duration, err, TelemetryStatusFailed, logger)
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = wrapContextError(ctxErr)
		h.report(ctx, msg, fields, duration, err, TelemetryStatusContextError, logger)
		return err
	}

	h.report(ctx, msg, fields, duration, nil, TelemetryStatusSuccess, logger)
	return nil
}

func (h *Handler[T]) report(ctx context.Context, msg T, fields map[string]any, duration time.Duration, err error, status TelemetryStatus, logger interfaces.Logger) {
	telemetry := h.telemetry
	if telemetry == nil {
		telemetry = DefaultTelemetry[T](h.logger)
	}
	telemetry(ctx, msg, TelemetryInfo{
		Command:   command.GetMessageType(msg),
		Operation: h.operation,
		Fields:    fields,
		Duration:  duration,
		Error:     err,
		Status:    status,
		Logger:    logger,
	})
}

// WithTimeout overrides the default execution timeout. Zero or negative disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution. Defaults to a no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = EnsureLogger(logger)
	}
}

// WithOperation sets a human-friendly operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields extracts structured fields from the message for logs and telemetry.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.messageFields = fn
	}
}

// WithTelemetry replaces the outcome callback. Defaults to DefaultTelemetry.
func WithTelemetry[T command.Message](telemetry Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = telemetry
	}
}

// WithClock overrides the clock used to time executions.
func WithClock[T command.Message](now func() time.Time) HandlerOption[T] {
	return func(h *Handler[T]) {
		if now != nil {
			h.now = now
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
