package outbox

import (
	"context"
	"log"
	"sync"
	"time"

	"resume-qa-go/internal/storage/models"
	"resume-qa-go/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	defaultMaxAttempts     = 5
)

// Publisher 消息发布器
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// Option 配置 MessageRelay
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批处理数量
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxAttempts 设置标记为 FAILED 前的最大发布次数
func WithMaxAttempts(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// MessageRelay 轮询 outbox 表并将候选人事件发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          *log.Logger
	pollingInterval time.Duration
	batchSize       int
	maxAttempts     int
	tracer          trace.Tracer
	done            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	now             func() time.Time
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(db *gorm.DB, publisher Publisher, logger *log.Logger, opts ...Option) *MessageRelay {
	if logger == nil {
		logger = log.Default()
	}
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		maxAttempts:     defaultMaxAttempts,
		tracer:          otel.Tracer("resume-qa-go/outbox"),
		done:            make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台开始轮询
func (r *MessageRelay) Start() {
	r.logger.Println("MessageRelay starting...")
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Println("MessageRelay stopped.")
				return
			case <-ticker.C:
				if err := r.ProcessPendingMessages(context.Background()); err != nil {
					r.logger.Printf("Error processing pending messages: %v", err)
				}
			}
		}
	}()
}

// Stop 停止轮询并等待当前批次结束
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Println("MessageRelay stopping...")
		close(r.done)
	})
	r.wg.Wait()
}

// ProcessPendingMessages 取出一批 PENDING 消息并逐条发布
func (r *MessageRelay) ProcessPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// SKIP LOCKED 让多个实例可以并行消费不同的行
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		r.logger.Printf("Failed to fetch pending outbox messages: %v", err)
		return err
	}
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))))
	defer span.End()

	for i := range messages {
		msg := &messages[i]
		pubErr := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if pubErr != nil {
			r.logger.Printf("Failed to publish message ID %d (AggregateID: %s): %v. Attempts: %d",
				msg.ID, msg.AggregateID, pubErr, msg.RetryCount+1)
		}
		applyPublishResult(msg, pubErr, r.maxAttempts, r.now())

		if err := tx.Save(msg).Error; err != nil {
			r.logger.Printf("Failed to update outbox message ID %d: %v", msg.ID, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return tx.Commit().Error
}

// applyPublishResult 根据发布结果更新消息状态
func applyPublishResult(msg *models.OutboxMessage, pubErr error, maxAttempts int, now time.Time) {
	if pubErr == nil {
		msg.Status = models.OutboxStatusSent
		msg.ProcessedAt = utils.TimePtr(now)
		msg.ErrorMessage = ""
		return
	}
	msg.RetryCount++
	msg.ErrorMessage = pubErr.Error()
	if msg.RetryCount >= maxAttempts {
		msg.Status = models.OutboxStatusFailed
		msg.ProcessedAt = utils.TimePtr(now)
	}
}
