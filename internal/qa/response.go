package qa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInferenceUnavailable 推理服务不可用，调用方应改用兜底回答
	ErrInferenceUnavailable = errors.New("推理服务不可用")
	// ErrModelLoading 模型仍在加载 (HTTP 503)
	ErrModelLoading = errors.New("模型加载中")
	// ErrUnrecognizedResponse 推理服务返回了无法识别的结构
	ErrUnrecognizedResponse = errors.New("无法识别的推理响应")
)

// decodeGeneration 将推理服务可能返回的几种结构统一解码为生成文本：
// [{"generated_text": ...}]、[{"text": ...}]、["..."]、"..."、{"generated_text": ...}、{"error": ...}
func decodeGeneration(body []byte) (string, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("%w: %w: %v", ErrInferenceUnavailable, ErrUnrecognizedResponse, err)
	}

	var text string
	switch v := raw.(type) {
	case []interface{}:
		if len(v) == 0 {
			return "", unrecognized("空数组")
		}
		switch first := v[0].(type) {
		case map[string]interface{}:
			t, ok := stringField(first, "generated_text", "text")
			if !ok {
				return "", unrecognized("数组元素缺少 generated_text/text 字段")
			}
			text = t
		case string:
			text = first
		default:
			return "", unrecognized(fmt.Sprintf("数组元素类型 %T", first))
		}
	case string:
		text = v
	case map[string]interface{}:
		if t, ok := stringField(v, "generated_text"); ok {
			text = t
			break
		}
		if msg, ok := stringField(v, "error"); ok {
			if strings.Contains(strings.ToLower(msg), "loading") {
				return "", fmt.Errorf("%w: %w: %s", ErrInferenceUnavailable, ErrModelLoading, msg)
			}
			return "", fmt.Errorf("%w: %s", ErrInferenceUnavailable, msg)
		}
		return "", unrecognized("对象缺少 generated_text 字段")
	default:
		return "", unrecognized(fmt.Sprintf("顶层类型 %T", v))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", unrecognized("生成文本为空")
	}
	return text, nil
}

func stringField(m map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			return s, true
		}
	}
	return "", false
}

func unrecognized(detail string) error {
	return fmt.Errorf("%w: %w: %s", ErrInferenceUnavailable, ErrUnrecognizedResponse, detail)
}
