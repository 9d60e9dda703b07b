package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/agriflow/marketplace/internal/core/domain"
	"github.com/agriflow/marketplace/internal/port"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second

	// waitDelay bounds how long output is drained after the command is killed.
	waitDelay = 500 * time.Millisecond
)

var (
	ErrNotConfigured = errors.New("price predictor not configured")
	ErrBadOutput     = errors.New("price predictor returned invalid output")

	// ErrRefused wraps an error the predictor reported for this request, such as an unknown crop.
	ErrRefused = errors.New("price predictor refused the request")

	errAbandoned = errors.New("price predictor call abandoned by caller")
)

type request struct {
	CropName     string      `json:"cropName"`
	CurrentPrice json.Number `json:"currentPrice"`
}

type response struct {
	History  []domain.PricePoint `json:"history"`
	Forecast []domain.PricePoint `json:"forecast"`
	Error    string              `json:"error"`
}

// ExecPredictor runs an external forecasting command per request. The
// command reads one JSON request on stdin and prints one JSON response.
// Repeated crashes, timeouts and malformed output open a circuit breaker
// so a broken model is not spawned for every request. Refusals and calls
// the caller gave up on do not count against it.
type ExecPredictor struct {
	command []string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

var _ port.PricePredictor = (*ExecPredictor)(nil)

func NewExecPredictor(command []string, timeout time.Duration, log *zap.Logger) *ExecPredictor {
	return &ExecPredictor{
		command: command,
		timeout: timeout,
		log:     log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "price-predictor",
			Timeout: breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrRefused) || errors.Is(err, errAbandoned)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (p *ExecPredictor) Predict(ctx context.Context, cropName string, currentPrice decimal.Decimal) (*domain.PriceForecast, error) {
	if len(p.command) == 0 {
		return nil, ErrNotConfigured
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.run(ctx, cropName, currentPrice)
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.PriceForecast), nil
}

func (p *ExecPredictor) run(ctx context.Context, cropName string, currentPrice decimal.Decimal) (*domain.PriceForecast, error) {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	input, err := json.Marshal(request{CropName: cropName, CurrentPrice: json.Number(currentPrice.String())})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predictor request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	if stderr.Len() > 0 {
		p.log.Debug("predictor stderr", zap.String("crop", cropName), zap.String("stderr", stderr.String()))
	}
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", errAbandoned, ctxErr)
		}
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("price predictor timed out after %s: %w", p.timeout, ctxErr)
		}
		return nil, fmt.Errorf("price predictor exited: %w", runErr)
	}

	var resp response
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefused, resp.Error)
	}

	p.log.Debug("price predicted",
		zap.String("crop", cropName),
		zap.Int("history_points", len(resp.History)),
		zap.Int("forecast_points", len(resp.Forecast)),
		zap.Duration("duration", time.Since(start)),
	)

	return &domain.PriceForecast{
		CropName:     cropName,
		CurrentPrice: currentPrice,
		History:      resp.History,
		Forecast:     resp.Forecast,
	}, nil
}
