package outbox

import (
	"errors"
	"testing"
	"time"

	"resume-qa-go/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPublishResult_Success(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := &models.OutboxMessage{Status: models.OutboxStatusPending, RetryCount: 2, ErrorMessage: "old"}

	applyPublishResult(msg, nil, 5, now)

	assert.Equal(t, models.OutboxStatusSent, msg.Status)
	require.NotNil(t, msg.ProcessedAt)
	assert.Equal(t, now, *msg.ProcessedAt)
	assert.Empty(t, msg.ErrorMessage)
	assert.Equal(t, 2, msg.RetryCount)
}

func TestApplyPublishResult_RetryThenFail(t *testing.T) {
	now := time.Now()
	msg := &models.OutboxMessage{Status: models.OutboxStatusPending}
	pubErr := errors.New("channel closed")

	for i := 1; i < 3; i++ {
		applyPublishResult(msg, pubErr, 3, now)
		assert.Equal(t, models.OutboxStatusPending, msg.Status, "第 %d 次失败后仍应等待重试", i)
		assert.Equal(t, i, msg.RetryCount)
		assert.Nil(t, msg.ProcessedAt)
	}

	applyPublishResult(msg, pubErr, 3, now)
	assert.Equal(t, models.OutboxStatusFailed, msg.Status)
	assert.Equal(t, "channel closed", msg.ErrorMessage)
	assert.NotNil(t, msg.ProcessedAt)
}

func TestNewMessageRelay_Options(t *testing.T) {
	r := NewMessageRelay(nil, nil, nil,
		WithPollingInterval(time.Second),
		WithBatchSize(25),
		WithMaxAttempts(0),
	)
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 25, r.batchSize)
	assert.Equal(t, defaultMaxAttempts, r.maxAttempts, "非正数不应覆盖默认值")
}

func TestMessageRelay_StopIsIdempotent(t *testing.T) {
	r := NewMessageRelay(nil, nil, nil, WithPollingInterval(time.Hour))
	r.Start()
	r.Stop()
	r.Stop()
}
