package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/music-nft-marketplace/internal/entity"
	"github.com/cockroachdb/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"sync"
)

var ErrExchangeNotFound = errors.New("exchange not found")

type MessageService interface {
	GetQueue(item Item) (*amqp.Queue, error)
	SendMessage(item Item, body []byte, reliable bool) error
	PublishMarketEvent(e entity.MarketEvent) error
	ConsumeMessages(ctx context.Context, item Item, callback func(msg []byte)) error
	GetQueueSize(item Item) (*int, error)
	Close() error
}

type Messenger struct {
	amqpUri string
	prefix  string

	mu   sync.Mutex
	conn *amqp.Connection
}

type Item string

var (
	MarketEvents Item = "market.events"
)

func (i Item) queue(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, i)
}

// NewMessenger connects lazily; prefix namespaces the queues, normally the
// index name.
func NewMessenger(amqpUri, prefix string) MessageService {
	return &Messenger{amqpUri: amqpUri, prefix: prefix}
}

func (m *Messenger) GetQueue(item Item) (*amqp.Queue, error) {
	ch, err := m.openChannel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare(item.queue(m.prefix), true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue(m.prefix))).Error("[Queue] Failed to create queue")
		return nil, err
	}

	return &queue, nil
}

func (m *Messenger) PublishMarketEvent(e entity.MarketEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode market event")
	}

	return m.SendMessage(MarketEvents, body, true)
}

func (m *Messenger) SendMessage(item Item, body []byte, reliable bool) error {
	ex, ok := exchanges[item]
	if !ok {
		zap.L().With(zap.String("item", string(item))).Error("[Queue] Exchange not found")
		return errors.Wrapf(ErrExchangeNotFound, "%s", item)
	}

	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return err
	}

	if reliable {
		if err := ch.Confirm(false); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Channel could not be put into confirm mode")
			return err
		}

		confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

		defer m.confirmOne(confirms)
	}

	publishing := amqp.Publishing{
		Headers:         amqp.Table{},
		ContentType:     "application/json",
		ContentEncoding: "",
		Body:            body,
		DeliveryMode:    amqp.Persistent,
		Priority:        0,
	}

	if err = ch.Publish(ex.Name, item.queue(m.prefix), false, false, publishing); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Publish")
		return err
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("routingKey", item.queue(m.prefix))).Info("[Queue] Published message")

	return nil
}

// ConsumeMessages blocks until ctx is cancelled or the broker closes the
// delivery channel.
func (m *Messenger) ConsumeMessages(ctx context.Context, item Item, callback func(msg []byte)) error {
	ex, ok := exchanges[item]
	if !ok {
		return errors.Wrapf(ErrExchangeNotFound, "%s", item)
	}

	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return err
	}

	q, err := ch.QueueDeclare(item.queue(m.prefix), true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to declare a queue")
		return err
	}

	if err = ch.QueueBind(q.Name, item.queue(m.prefix), ex.Name, false, nil); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to bind a queue")
		return err
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to consume the queue")
		return err
	}

	zap.S().With(zap.String("exchange", ex.Name)).Debugf("[Queue] Waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			zap.L().Debug("[Queue] Received message")
			callback(d.Body)
		}
	}
}

func (m *Messenger) GetQueueSize(item Item) (*int, error) {
	queue, err := m.GetQueue(item)
	if err != nil {
		return nil, err
	}

	return &queue.Messages, nil
}

func (m *Messenger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.IsClosed() {
		return nil
	}

	return m.conn.Close()
}

func (m *Messenger) openConnection() (*amqp.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := amqp.Dial(m.amqpUri)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to connect to RabbitMQ")
		return nil, err
	}

	m.conn = conn

	return m.conn, nil
}

func (m *Messenger) openChannel() (*amqp.Channel, error) {
	conn, err := m.openConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		zap.S().With(zap.Error(err)).Error("[Queue] Failed to open channel")
	}

	return ch, err
}

func (m *Messenger) confirmOne(confirms <-chan amqp.Confirmation) {
	zap.L().Debug("[Queue] Waiting for publish confirmation")

	if confirmed := <-confirms; confirmed.Ack {
		zap.L().Debug("[Queue] Publish confirmed")
	} else {
		zap.L().Warn("[Queue] Publish failed")
	}
}
