package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

const FunctionsExchangeKind = "topic"

var ErrNotConfirmed = errors.New("broker did not confirm the message")

// FunctionInvoker calls remote functions by publishing their JSON payload to the
// functions exchange, with the function name as routing key. The channel runs in
// confirm mode so Invoke only succeeds once the broker has taken the message.
type FunctionInvoker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	timeout  time.Duration

	mu sync.Mutex
}

func NewFunctionInvoker(url, exchange string, timeout time.Duration) (*FunctionInvoker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, FunctionsExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}

	return &FunctionInvoker{conn: conn, channel: ch, exchange: exchange, timeout: timeout}, nil
}

func (f *FunctionInvoker) Invoke(ctx context.Context, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(headers))

	// amqp channels are not safe for concurrent publishing in confirm mode.
	f.mu.Lock()
	defer f.mu.Unlock()

	confirm, err := f.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		f.exchange,
		name,
		false,
		false,
		amqp.Publishing{
			Headers:      headers,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         name,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", name, err)
	}
	if !acked {
		return fmt.Errorf("invoke %s: %w", name, ErrNotConfirmed)
	}
	return nil
}

func (f *FunctionInvoker) Close() {
	if f.channel != nil {
		f.channel.Close()
	}
	if f.conn != nil {
		f.conn.Close()
	}
}
