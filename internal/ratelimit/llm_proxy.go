package ratelimit

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RateLimitedChatModel 对推理模型调用做节流的代理。
// 拿不到令牌时随上下文超时返回错误，由调用方决定兜底。
type RateLimitedChatModel struct {
	original    model.BaseChatModel
	rateLimiter *TokenBucket
}

// NewRateLimitedChatModel 创建限流代理，qpm 不大于 0 时直接返回原模型
func NewRateLimitedChatModel(original model.BaseChatModel, qpm int) model.BaseChatModel {
	if qpm <= 0 {
		return original
	}
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 允许一定的突发流量
	}
}

// Generate 等待令牌后调用原模型
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

// Stream 等待令牌后调用原模型
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}

var _ model.BaseChatModel = (*RateLimitedChatModel)(nil)
