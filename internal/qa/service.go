package qa

import (
	"context"
	"errors"
	"strings"
	"time"

	"resume-qa-go/internal/tracing"
	"resume-qa-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// DefaultTimeout 单次推理调用的默认超时
const DefaultTimeout = 30 * time.Second

// Answer 问答结果及其来源
type Answer struct {
	Text   string
	Source types.AnswerSource
}

// Service 基于候选人档案回答问题，推理失败时退回到关键字兜底回答
type Service struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	logger    *zerolog.Logger
}

// ServiceOption 定义 Service 的配置选项
type ServiceOption func(*Service)

// WithTimeout 设置推理超时，非正值保持默认
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithServiceLogger 设置日志记录器
func WithServiceLogger(logger *zerolog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService 创建问答服务。chatModel 为 nil 时只使用兜底回答。
func NewService(chatModel model.BaseChatModel, opts ...ServiceOption) *Service {
	nop := zerolog.Nop()
	s := &Service{
		chatModel: chatModel,
		timeout:   DefaultTimeout,
		logger:    &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask 构造提示词并调用推理服务，超时或任何错误都同步退回兜底回答，不重试
func (s *Service) Ask(ctx context.Context, profile types.CandidateProfile, question string) Answer {
	prompt := BuildPrompt(profile, question)

	if s.chatModel == nil {
		return Answer{Text: FallbackAnswer(prompt), Source: types.AnswerFromFallback}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	msg, err := s.chatModel.Generate(callCtx, []*schema.Message{schema.UserMessage(prompt)})
	if err == nil && msg != nil && strings.TrimSpace(msg.Content) != "" {
		s.logger.Debug().
			Dur("latency", time.Since(start)).
			Msg("推理服务回答成功")
		return Answer{Text: strings.TrimSpace(msg.Content), Source: types.AnswerFromModel}
	}

	event := s.logger.Warn().
		Dur("latency", time.Since(start)).
		Str("prompt_preview", tracing.SafePrompt(prompt))
	switch {
	case err == nil:
		event.Msg("推理服务返回空回答，使用兜底回答")
	case errors.Is(err, context.DeadlineExceeded):
		event.Err(err).Dur("timeout", s.timeout).Msg("推理服务超时，使用兜底回答")
	case errors.Is(err, ErrModelLoading):
		event.Err(err).Msg("模型加载中，使用兜底回答")
	default:
		event.Err(err).Msg("推理服务调用失败，使用兜底回答")
	}
	return Answer{Text: FallbackAnswer(prompt), Source: types.AnswerFromFallback}
}
