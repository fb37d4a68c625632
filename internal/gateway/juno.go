package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xjesus/bachata-connect-api/internal/config"
	"github.com/0xjesus/bachata-connect-api/internal/logger"
	"github.com/google/uuid"
)

// PaymentRail 外部支付通道能力
// 出金调用必须在任何数据库事务之外发起
type PaymentRail interface {
	// CreateCryptoWithdrawal 发起链上提现
	CreateCryptoWithdrawal(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error)
	// CreateMockDeposit 测试环境模拟一笔 SPEI 入金
	CreateMockDeposit(ctx context.Context, req MockDepositRequest) (*MockDepositResult, error)
}

// WithdrawalRequest 提现请求
type WithdrawalRequest struct {
	Address        string `json:"address"`
	Amount         string `json:"amount"`
	Asset          string `json:"asset"`
	Blockchain     string `json:"blockchain"`
	IdempotencyKey string `json:"-"` // 通过 header 传递
}

// WithdrawalResult 提现回执
type WithdrawalResult struct {
	ProviderID string                 `json:"id"`
	Payload    map[string]interface{} `json:"-"`
}

// MockDepositRequest 模拟入金请求
type MockDepositRequest struct {
	Amount        string `json:"amount"`
	ReceiverClabe string `json:"receiver_clabe"`
	ReceiverName  string `json:"receiver_name"`
	SenderName    string `json:"sender_name"`
}

// MockDepositResult 模拟入金回执
type MockDepositResult struct {
	TrackingCode  string                 `json:"tracking_code"`
	Amount        string                 `json:"amount"`
	ReceiverClabe string                 `json:"receiver_clabe"`
	Payload       map[string]interface{} `json:"-"`
}

// JunoClient Juno/Bitso 支付通道客户端
type JunoClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewJunoClient 创建支付通道客户端
func NewJunoClient(cfg config.JunoConfig) *JunoClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &JunoClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateCryptoWithdrawal 调用通道发起链上提现
func (c *JunoClient) CreateCryptoWithdrawal(ctx context.Context, req WithdrawalRequest) (*WithdrawalResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	body := map[string]interface{}{
		"address":    req.Address,
		"amount":     req.Amount,
		"asset":      req.Asset,
		"blockchain": req.Blockchain,
		"compliance": map[string]interface{}{},
	}

	payload, err := c.post(ctx, "/mint_platform/v1/withdrawals", body, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	result := WithdrawalResult{Payload: payload}
	if id, ok := payload["id"].(string); ok {
		result.ProviderID = id
	} else if id, ok := payload["transaction_id"].(string); ok {
		result.ProviderID = id
	}
	if result.ProviderID == "" {
		return nil, fmt.Errorf("通道回执缺少流水号")
	}

	logger.Info("Juno withdrawal accepted, provider id: %s", result.ProviderID)
	return &result, nil
}

// CreateMockDeposit 测试环境模拟入金
func (c *JunoClient) CreateMockDeposit(ctx context.Context, req MockDepositRequest) (*MockDepositResult, error) {
	body := map[string]interface{}{
		"amount":         req.Amount,
		"receiver_clabe": req.ReceiverClabe,
		"receiver_name":  req.ReceiverName,
		"sender_name":    req.SenderName,
	}

	payload, err := c.post(ctx, "/spei/test/deposits", body, uuid.NewString())
	if err != nil {
		return nil, err
	}

	result := MockDepositResult{Payload: payload}
	if code, ok := payload["tracking_code"].(string); ok {
		result.TrackingCode = code
	}
	if amount, ok := payload["amount"].(string); ok {
		result.Amount = amount
	}
	if clabe, ok := payload["receiver_clabe"].(string); ok {
		result.ReceiverClabe = clabe
	}

	return &result, nil
}

// post 发送带鉴权的 JSON 请求并解出 payload
func (c *JunoClient) post(ctx context.Context, path string, body map[string]interface{}, idempotencyKey string) (map[string]interface{}, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bitso %s:%s", c.apiKey, c.apiSecret))
	req.Header.Set("X-Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("通道请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取通道响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("Juno API %s returned %d: %s", path, resp.StatusCode, string(raw))
		return nil, fmt.Errorf("通道返回 %d", resp.StatusCode)
	}

	// Juno 的响应统一包在 {success, payload} 里
	var envelope struct {
		Success bool                   `json:"success"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("解析通道响应失败: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("通道返回失败响应")
	}

	return envelope.Payload, nil
}
