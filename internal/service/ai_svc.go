package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"unifier_dev_v1_202608/pkg/config"
)

// ==================== AI 建议边界 ====================

// ProductContext 提供给建议后端的商品文本上下文
type ProductContext struct {
	Name             string
	URL              string
	Description      string
	ShortDescription string
}

// SuggestRequest 一次建议请求
type SuggestRequest struct {
	Attribute string         // 待解析属性
	TaskType  string         // 任务类型提示，决定建议质量档位
	Language  string         // 目标语言
	Product   ProductContext // 商品文本
	Hints     []string       // 启发式候选 (可为空)
	Options   []string       // 限定可选集合 (如已知品牌表，可为空)
	RawKey    string         // 被标准化的原始值 (变体属性等场景)
}

// Suggester AI 建议能力边界
// 具体后端可整体替换而不影响级联逻辑
type Suggester interface {
	Suggest(ctx context.Context, req SuggestRequest) (string, error)
}

// 质量档位较高的任务类型，走 pro 模型
var proTaskTypes = map[string]struct{}{
	"category_selection":      {},
	"description_translation": {},
	"keyword_generation":      {},
}

// ==================== Gemini 实现 ====================

// GeminiService 基于 Gemini generateContent REST 接口的建议后端
type GeminiService struct {
	cfg    *config.AIConfig
	client *resty.Client
	log    *zap.SugaredLogger
}

// NewGeminiService 创建 Gemini 建议服务
// ApiKey 为空时服务可以创建，但所有请求返回 ErrAssistUnavailable
func NewGeminiService(cfg *config.AIConfig, log *zap.SugaredLogger) *GeminiService {
	// 固定模型配置
	if cfg.FlashModel == "" {
		cfg.FlashModel = "gemini-3-flash"
	}
	if cfg.ProModel == "" {
		cfg.ProModel = "gemini-3-pro"
	}

	client := resty.New()
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(2)

	return &GeminiService{cfg: cfg, client: client, log: log}
}

func (s *GeminiService) model(taskType string) string {
	if _, ok := proTaskTypes[taskType]; ok {
		return s.cfg.ProModel
	}
	return s.cfg.FlashModel
}

// Suggest 请求一个属性建议值
// 后端不可达/解析失败一律包装为 ErrAssistUnavailable，由级联继续兜底
func (s *GeminiService) Suggest(ctx context.Context, req SuggestRequest) (string, error) {
	if s.cfg.ApiKey == "" {
		return "", fmt.Errorf("%w: Gemini API Key 未配置", ErrAssistUnavailable)
	}

	prompt := s.buildPrompt(req)
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		s.model(req.TaskType), s.cfg.ApiKey)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&geminiResp).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("%w: 请求失败: %v", ErrAssistUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: Gemini API 错误 [%d]: %s", ErrAssistUnavailable, resp.StatusCode(), resp.String())
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: 响应为空", ErrAssistUnavailable)
	}

	var parsed struct {
		Value string `json:"value"`
	}
	text := geminiResp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", fmt.Errorf("%w: 响应解析失败: %v", ErrAssistUnavailable, err)
	}
	value := strings.TrimSpace(parsed.Value)
	if value == "" {
		// 后端明确拒绝给出建议
		return "", fmt.Errorf("%w: 后端未给出建议", ErrAssistUnavailable)
	}
	return value, nil
}

func (s *GeminiService) buildPrompt(req SuggestRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a product catalog unification assistant. Resolve the %q attribute for the product below. Target language: %s.\n\n", req.Attribute, req.Language)
	if req.RawKey != "" {
		fmt.Fprintf(&b, "Raw value to standardize: %q\n", req.RawKey)
	}
	fmt.Fprintf(&b, "Product name: %s\n", req.Product.Name)
	if req.Product.URL != "" {
		fmt.Fprintf(&b, "Product URL: %s\n", req.Product.URL)
	}
	if req.Product.ShortDescription != "" {
		fmt.Fprintf(&b, "Short description: %s\n", req.Product.ShortDescription)
	}
	if req.Product.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Product.Description)
	}
	if len(req.Options) > 0 {
		fmt.Fprintf(&b, "\nChoose strictly from this list:\n%s\n", strings.Join(req.Options, "\n"))
	}
	if len(req.Hints) > 0 {
		fmt.Fprintf(&b, "\nHeuristic analysis found these candidates, evaluate them in your decision: %s\n", strings.Join(req.Hints, ", "))
	}
	b.WriteString("\nOutput Format (JSON only, no markdown):\n{\"value\": \"resolved value here\"}\n")
	b.WriteString("If you cannot determine the value, output {\"value\": \"\"}.\n")
	return b.String()
}
