package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"resume-qa-go/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// MessagePublisher 领域事件发布接口
type MessagePublisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// 确保RabbitMQ实现了MessagePublisher接口
var _ MessagePublisher = (*RabbitMQ)(nil)

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool
	mu          sync.Mutex
	declared    map[string]bool // 已声明的 exchange / queue / binding
	cfg         *config.RabbitMQConfig
}

// NewRabbitMQ 创建RabbitMQ客户端
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:     conn,
		declared: make(map[string]bool),
		cfg:      cfg,
	}
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, errPool := conn.Channel()
			if errPool != nil {
				log.Printf("创建RabbitMQ通道失败: %v", errPool)
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	mq.putChannel(testCh)

	log.Printf("成功连接到RabbitMQ服务器")
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch, _ := r.channelPool.Get().(*amqp.Channel)
	if ch == nil || ch.IsClosed() {
		newCh, err := r.conn.Channel()
		if err != nil {
			log.Printf("创建新RabbitMQ通道失败: %v", err)
			return nil
		}
		return newCh
	}
	return ch
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// markDeclared 记录声明结果，返回此前是否已声明
func (r *RabbitMQ) markDeclared(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[key] {
		return true
	}
	r.declared[key] = true
	return false
}

func (r *RabbitMQ) forget(key string) {
	r.mu.Lock()
	delete(r.declared, key)
	r.mu.Unlock()
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	if exchangeName == "amq.default" || exchangeName == "default" {
		return fmt.Errorf("不能声明默认交换机 '%s'", exchangeName)
	}
	key := "exchange:" + exchangeName
	if r.markDeclared(key) {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		r.forget(key)
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	if err := ch.ExchangeDeclare(exchangeName, exchangeType, durable, false, false, false, nil); err != nil {
		r.forget(key)
		return fmt.Errorf("声明exchange失败: %w", err)
	}
	log.Printf("已确保exchange存在: '%s'", exchangeName)
	return nil
}

// EnsureQueue 确保队列存在
func (r *RabbitMQ) EnsureQueue(queueName string, durable bool) error {
	key := "queue:" + queueName
	if r.markDeclared(key) {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		r.forget(key)
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	if _, err := ch.QueueDeclare(queueName, durable, false, false, false, nil); err != nil {
		r.forget(key)
		return fmt.Errorf("声明队列失败: %w", err)
	}
	log.Printf("已确保队列存在: %s", queueName)
	return nil
}

// BindQueue 绑定队列到exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	key := fmt.Sprintf("binding:%s:%s:%s", exchangeName, queueName, routingKey)
	if r.markDeclared(key) {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		r.forget(key)
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		r.forget(key)
		return fmt.Errorf("绑定队列到exchange失败: %w", err)
	}
	log.Printf("已绑定队列 %s 到exchange %s，路由键: %s", queueName, exchangeName, routingKey)
	return nil
}

// EnsureCandidateTopology 声明候选人事件的 exchange、队列及绑定
func (r *RabbitMQ) EnsureCandidateTopology() error {
	if err := r.EnsureExchange(r.cfg.CandidateEventsExchange, "topic", true); err != nil {
		return err
	}
	if r.cfg.CandidateEventsQueue == "" {
		return nil
	}
	if err := r.EnsureQueue(r.cfg.CandidateEventsQueue, true); err != nil {
		return err
	}
	return r.BindQueue(r.cfg.CandidateEventsQueue, r.cfg.CandidateEventsExchange, r.cfg.CandidateCreatedRoutingKey)
}

// PublishMessage 发布消息到exchange，并在消息头中注入追踪上下文
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	return ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		Headers:      traceHeaders(ctx),
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
}

// traceHeaders 将当前 span 上下文写入 AMQP 消息头
func traceHeaders(ctx context.Context) amqp.Table {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := amqp.Table{}
	for k, v := range carrier {
		headers[k] = v
	}
	return headers
}
