package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

const (
	ExchangeOutflowDirect = "outflow-direct"
	ExchangeDeadLetter    = "dead-letter"

	QueueCampaignEvents = "outflow-campaign-events"
	DLQCampaignEvents   = QueueCampaignEvents + "-dlq"

	RoutingKeyDeadLetter = "dead-letter"

	RoutingKeyEmailSent     = "email.sent"
	RoutingKeyReplyReceived = "reply.received"
	RoutingKeyLeadOptedOut  = "lead.opted_out"

	defaultMessageTTL       = 240 * time.Hour
	defaultMaxRetries       = 3
	defaultPublishTimeout   = 5 * time.Second
	defaultReconnectBackoff = time.Second
	maxReconnectBackoff     = 30 * time.Second
)

// RabbitMQPublisher emits campaign events on the outflow-direct exchange with
// publisher confirms and automatic reconnection.
type RabbitMQPublisher struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	confirms        chan amqp091.Confirmation
	url             string
	log             logger.Logger
}

func NewRabbitMQPublisher(rabbitmqURL string, log logger.Logger) (interfaces.EventPublisher, error) {
	publisher := &RabbitMQPublisher{
		url: rabbitmqURL,
		log: log,
	}
	if err := publisher.connect(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func (r *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.Publish")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("routingKey", routingKey)
	tracing.LogObjectAsJson(span, "payload", payload)

	var lastErr error
	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		lastErr = r.publishWithConfirm(ctx, routingKey, payload)
		if lastErr == nil {
			return nil
		}
		r.log.Warnf("Publish attempt %d failed: %v", attempt+1, lastErr)
		if attempt < defaultMaxRetries-1 {
			time.Sleep(time.Millisecond * 100 * time.Duration(attempt+1))
		}
	}
	err := errors.Wrap(lastErr, "failed to publish message after all retries")
	tracing.TraceErr(span, err)
	return err
}

func (r *RabbitMQPublisher) publishWithConfirm(ctx context.Context, routingKey string, payload any) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := r.ensureConnectionAndChannel(); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	err = r.publishChannel.Publish(
		ExchangeOutflowDirect,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp091.Publishing{
			DeliveryMode: amqp091.Persistent,
			ContentType:  "application/json",
			Body:         jsonBody,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return errors.Wrap(err, "failed to publish message")
	}

	select {
	case confirm := <-r.confirms:
		if !confirm.Ack {
			return errors.New("message was not confirmed by server")
		}
	case <-time.After(defaultPublishTimeout):
		return errors.New("publish confirmation timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *RabbitMQPublisher) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	var err error
	r.connection, err = amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RabbitMQ")
	}

	if err := r.setupExchangesAndQueues(); err != nil {
		return errors.Wrap(err, "failed to setup exchanges and queues")
	}
	if err := r.setupPublishChannel(); err != nil {
		return errors.Wrap(err, "failed to setup publish channel")
	}

	go r.handleReconnection()
	return nil
}

func (r *RabbitMQPublisher) ensureConnectionAndChannel() error {
	if r.connection == nil || r.connection.IsClosed() {
		if err := r.connect(); err != nil {
			return errors.Wrap(err, "failed to establish connection")
		}
	}
	if r.publishChannel == nil || r.publishChannel.IsClosed() {
		if err := r.setupPublishChannel(); err != nil {
			return errors.Wrap(err, "failed to establish channel")
		}
	}
	return nil
}

func (r *RabbitMQPublisher) setupPublishChannel() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open publish channel")
	}
	if err := channel.Confirm(false); err != nil {
		channel.Close()
		return errors.Wrap(err, "failed to enable publisher confirms")
	}
	r.confirms = channel.NotifyPublish(make(chan amqp091.Confirmation, 1))
	r.publishChannel = channel
	return nil
}

func (r *RabbitMQPublisher) setupExchangesAndQueues() error {
	channel, err := r.connection.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel for exchange setup")
	}
	defer channel.Close()

	if err := channel.ExchangeDeclare(ExchangeDeadLetter, "direct", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "failed to declare dead letter exchange")
	}
	if err := channel.ExchangeDeclare(ExchangeOutflowDirect, "direct", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "failed to declare outflow-direct exchange")
	}

	if _, err := channel.QueueDeclare(DLQCampaignEvents, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "failed to declare DLQ %s", DLQCampaignEvents)
	}
	if err := channel.QueueBind(DLQCampaignEvents, RoutingKeyDeadLetter, ExchangeDeadLetter, false, nil); err != nil {
		return errors.Wrapf(err, "failed to bind DLQ %s", DLQCampaignEvents)
	}

	args := amqp091.Table{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": RoutingKeyDeadLetter,
		"x-message-ttl":             int64(defaultMessageTTL.Milliseconds()),
	}
	if _, err := channel.QueueDeclare(QueueCampaignEvents, true, false, false, false, args); err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", QueueCampaignEvents)
	}

	for _, routingKey := range []string{RoutingKeyEmailSent, RoutingKeyReplyReceived, RoutingKeyLeadOptedOut} {
		if err := channel.QueueBind(QueueCampaignEvents, routingKey, ExchangeOutflowDirect, false, nil); err != nil {
			return errors.Wrapf(err, "failed to bind queue %s to %s", QueueCampaignEvents, routingKey)
		}
	}
	return nil
}

func (r *RabbitMQPublisher) handleReconnection() {
	backoff := defaultReconnectBackoff

	for {
		notifyClose := r.connection.NotifyClose(make(chan *amqp091.Error))
		err := <-notifyClose
		r.log.Warnf("RabbitMQ connection closed: %v, attempting to reconnect", err)

		for {
			if err := r.connect(); err == nil {
				r.log.Info("Successfully reconnected to RabbitMQ")
				break
			} else {
				r.log.Errorf("Failed to reconnect: %v, retrying in %v", err, backoff)
				time.Sleep(backoff)
				backoff *= 2
				if backoff > maxReconnectBackoff {
					backoff = maxReconnectBackoff
				}
			}
		}
		backoff = defaultReconnectBackoff
	}
}

func (r *RabbitMQPublisher) Close() {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.publishChannel != nil {
		if err := r.publishChannel.Close(); err != nil {
			r.log.Errorf("Error closing publish channel: %v", err)
		}
	}
	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			r.log.Errorf("Error closing connection: %v", err)
		}
	}
}
