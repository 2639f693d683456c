package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	defaultHFAPIURL       = "https://api-inference.huggingface.co/models"
	defaultHFModelName    = "mistralai/Mistral-7B-Instruct-v0.2"
	defaultMaxNewTokens   = 200
	defaultTemperature    = float32(0.7)
	maxErrorBodyInMessage = 512
)

// HuggingFaceChatModel 实现 model.BaseChatModel 接口，调用托管推理服务的文本生成接口
type HuggingFaceChatModel struct {
	apiKey       string
	modelName    string
	apiURL       string
	maxNewTokens int
	temperature  float32
	httpClient   *http.Client
	logger       *zerolog.Logger
}

// HFOption 定义 HuggingFaceChatModel 的配置选项
type HFOption func(*HuggingFaceChatModel)

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(client *http.Client) HFOption {
	return func(m *HuggingFaceChatModel) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithGenerationDefaults 设置默认生成参数，非正值保持默认
func WithGenerationDefaults(maxNewTokens int, temperature float32) HFOption {
	return func(m *HuggingFaceChatModel) {
		if maxNewTokens > 0 {
			m.maxNewTokens = maxNewTokens
		}
		if temperature > 0 {
			m.temperature = temperature
		}
	}
}

// WithModelLogger 设置日志记录器
func WithModelLogger(logger *zerolog.Logger) HFOption {
	return func(m *HuggingFaceChatModel) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewHuggingFaceChatModel 创建推理模型客户端，模型名与地址为空时使用默认值
func NewHuggingFaceChatModel(apiKey, modelName, apiURL string, opts ...HFOption) (*HuggingFaceChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	if strings.TrimSpace(modelName) == "" {
		modelName = defaultHFModelName
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultHFAPIURL
	}

	nop := zerolog.Nop()
	m := &HuggingFaceChatModel{
		apiKey:       apiKey,
		modelName:    modelName,
		apiURL:       strings.TrimRight(apiURL, "/"),
		maxNewTokens: defaultMaxNewTokens,
		temperature:  defaultTemperature,
		httpClient:   &http.Client{},
		logger:       &nop,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Info().
		Str("api_url", m.apiURL).
		Str("model", m.modelName).
		Msg("使用托管推理服务客户端")
	return m, nil
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

// Endpoint 返回当前模型的请求地址
func (m *HuggingFaceChatModel) Endpoint() string {
	return m.apiURL + "/" + m.modelName
}

// Generate 实现 model.BaseChatModel 接口。所有消息内容按顺序拼接为单个 inputs。
func (m *HuggingFaceChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	maxTokens := m.maxNewTokens
	temperature := m.temperature
	options := model.GetCommonOptions(&model.Options{
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}, opts...)

	payload := generationRequest{
		Inputs: promptFromMessages(messages),
		Parameters: generationParameters{
			MaxNewTokens:   *options.MaxTokens,
			Temperature:    *options.Temperature,
			ReturnFullText: false,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: 创建 HTTP 请求失败: %w", ErrInferenceUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	m.logger.Debug().
		Str("endpoint", m.Endpoint()).
		Int("prompt_length", len(payload.Inputs)).
		Msg("发送推理请求")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: 发送 HTTP 请求失败: %w", ErrInferenceUnavailable, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应体失败: %w", ErrInferenceUnavailable, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusServiceUnavailable:
		m.logger.Warn().Str("model", m.modelName).Msg("模型加载中，稍后再试")
		return nil, fmt.Errorf("%w: %w", ErrInferenceUnavailable, ErrModelLoading)
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: API 请求失败，状态 %s: %s",
			ErrInferenceUnavailable, httpResp.Status, truncateBody(bodyBytes))
	}

	text, err := decodeGeneration(bodyBytes)
	if err != nil {
		return nil, err
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: text,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口，推理接口不支持流式，整体结果作为单个分片返回
func (m *HuggingFaceChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ model.BaseChatModel = (*HuggingFaceChatModel)(nil)

func promptFromMessages(messages []*schema.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n")
}

func truncateBody(body []byte) string {
	if len(body) <= maxErrorBodyInMessage {
		return string(body)
	}
	return string(body[:maxErrorBodyInMessage]) + "..."
}
