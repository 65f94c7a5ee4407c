package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jaylenmareko/topic-funding-sub000/internal/config"
	"github.com/jaylenmareko/topic-funding-sub000/internal/logger"
	"github.com/sony/gobreaker/v2"
)

// ErrGatewayUnavailable 网关熔断中或不可达
var ErrGatewayUnavailable = errors.New("支付网关暂不可用")

// Gateway 外部支付网关
// 退款调用必须幂等：同一支付单号重复退款由网关端的幂等键去重
type Gateway interface {
	IssueRefund(ctx context.Context, originalPaymentId string, amount int64) (string, error)
}

// HTTPGateway 基于HTTP的网关实现，带熔断保护
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[refundResponse]
}

type refundRequest struct {
	PaymentId string `json:"payment_id"`
	Amount    int64  `json:"amount"`
}

type refundResponse struct {
	RefundId string `json:"refund_id"`
}

// NewHTTPGateway 创建网关客户端
func NewHTTPGateway(cfg config.PaymentConfig) *HTTPGateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[refundResponse](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// 连续失败5次后熔断，避免一次清算被挂死在网关上
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s state changed: %s -> %s", name, from, to)
		},
	})

	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// IssueRefund 对原支付发起退款，返回网关退款单号
func (g *HTTPGateway) IssueRefund(ctx context.Context, originalPaymentId string, amount int64) (string, error) {
	if originalPaymentId == "" {
		return "", errors.New("支付单号不能为空")
	}
	if amount <= 0 {
		return "", errors.New("退款金额必须大于0")
	}

	resp, err := g.breaker.Execute(func() (refundResponse, error) {
		return g.doRefund(ctx, originalPaymentId, amount)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrGatewayUnavailable
		}
		return "", err
	}

	return resp.RefundId, nil
}

// doRefund 执行一次退款请求
func (g *HTTPGateway) doRefund(ctx context.Context, originalPaymentId string, amount int64) (refundResponse, error) {
	var result refundResponse

	body, err := json.Marshal(refundRequest{
		PaymentId: originalPaymentId,
		Amount:    amount,
	})
	if err != nil {
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/refunds", bytes.NewReader(body))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	// 网关端凭此键对重试去重
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("refund request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("refund rejected by gateway: status=%d body=%s", resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return result, fmt.Errorf("invalid gateway response: %w", err)
	}
	if result.RefundId == "" {
		return result, errors.New("gateway response missing refund_id")
	}

	return result, nil
}
