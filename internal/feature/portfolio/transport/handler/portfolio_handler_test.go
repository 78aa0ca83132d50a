package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_terminal/internal/feature/portfolio/domain"
	"stock_terminal/internal/feature/portfolio/domain/entity"
	"stock_terminal/internal/feature/portfolio/transport/handler"
	"stock_terminal/internal/feature/portfolio/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockPortfolioUsecase はPortfolioUsecaseインターフェースのモック実装です。
type mockPortfolioUsecase struct {
	TradeFunc        func(ctx context.Context, o usecase.Order) (entity.Transaction, error)
	SummaryFunc      func(ctx context.Context) (entity.Summary, error)
	PositionFunc     func(ctx context.Context, symbol string) (entity.Position, error)
	TransactionsFunc func(ctx context.Context, limit int) ([]entity.Transaction, error)
}

func (m *mockPortfolioUsecase) Buy(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
	return m.TradeFunc(ctx, o)
}

func (m *mockPortfolioUsecase) Sell(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
	return m.TradeFunc(ctx, o)
}

func (m *mockPortfolioUsecase) Summary(ctx context.Context) (entity.Summary, error) {
	return m.SummaryFunc(ctx)
}

func (m *mockPortfolioUsecase) Position(ctx context.Context, symbol string) (entity.Position, error) {
	return m.PositionFunc(ctx, symbol)
}

func (m *mockPortfolioUsecase) Transactions(ctx context.Context, limit int) ([]entity.Transaction, error) {
	return m.TransactionsFunc(ctx, limit)
}

func newRouter(uc handler.PortfolioUsecase) *gin.Engine {
	h := handler.NewPortfolioHandler(uc)
	r := gin.New()
	r.GET("/portfolio", h.Summary)
	r.GET("/portfolio/positions/:symbol", h.Position)
	r.GET("/portfolio/transactions", h.Transactions)
	r.POST("/portfolio/buy", h.Buy)
	r.POST("/portfolio/sell", h.Sell)
	return r
}

func TestPortfolioHandler_Trade(t *testing.T) {
	t.Parallel()

	executed := time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name           string
		path           string
		body           string
		trade          func(ctx context.Context, o usecase.Order) (entity.Transaction, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: buy at explicit price",
			path: "/portfolio/buy",
			body: `{"symbol":"AAPL","shares":10,"price":"189.5"}`,
			trade: func(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
				require.NotNil(t, o.Price)
				assert.Equal(t, "189.5", o.Price.String())
				return entity.Transaction{
					ID: 7, Symbol: "AAPL", Action: entity.ActionBuy, Shares: 10,
					Price: *o.Price, Total: decimal.RequireFromString("1895"), ExecutedAt: executed,
				}, nil
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"id":7,"symbol":"AAPL","action":"BUY","shares":10,"price":"189.5","total":"1895","executed_at":"2024-06-05T15:30:00Z"}`,
		},
		{
			name: "success: sell at market",
			path: "/portfolio/sell",
			body: `{"symbol":"AAPL","shares":1}`,
			trade: func(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
				assert.Nil(t, o.Price)
				return entity.Transaction{ID: 8, Symbol: "AAPL", Action: entity.ActionSell, Shares: 1}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "failure: zero shares rejected by binding",
			path:           "/portfolio/buy",
			body:           `{"symbol":"AAPL","shares":0}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "failure: insufficient cash",
			path: "/portfolio/buy",
			body: `{"symbol":"AAPL","shares":100000}`,
			trade: func(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
				return entity.Transaction{}, fmt.Errorf("%w: need more", domain.ErrInsufficientCash)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "failure: quote unavailable",
			path: "/portfolio/sell",
			body: `{"symbol":"ZZZZ","shares":1}`,
			trade: func(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
				return entity.Transaction{}, fmt.Errorf("%w: ZZZZ", domain.ErrQuoteUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"N/A","detail":"quote unavailable: ZZZZ"}`,
		},
		{
			name: "failure: no position",
			path: "/portfolio/sell",
			body: `{"symbol":"AAPL","shares":1}`,
			trade: func(ctx context.Context, o usecase.Order) (entity.Transaction, error) {
				return entity.Transaction{}, domain.ErrNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRouter(&mockPortfolioUsecase{TradeFunc: tt.trade})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestPortfolioHandler_Summary(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{SummaryFunc: func(ctx context.Context) (entity.Summary, error) {
		return entity.NewPortfolio(entity.DefaultStartingCash).Value(nil, entity.DefaultStartingCash), nil
	}}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolio", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cash":"100000","stock_value":"0","total_value":"100000","total_pnl":"0","return_percent":"0","unpriced":0,"positions":[]}`, w.Body.String())
}

func TestPortfolioHandler_Position(t *testing.T) {
	t.Parallel()

	uc := &mockPortfolioUsecase{PositionFunc: func(ctx context.Context, symbol string) (entity.Position, error) {
		return entity.Position{}, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}}
	w := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolio/positions/TSLA", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"position not found: TSLA"}`, w.Body.String())
}

func TestPortfolioHandler_Transactions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url            string
		wantLimit      int
		expectedStatus int
	}{
		{name: "default limit", url: "/portfolio/transactions", wantLimit: 50, expectedStatus: http.StatusOK},
		{name: "explicit limit", url: "/portfolio/transactions?limit=5", wantLimit: 5, expectedStatus: http.StatusOK},
		{name: "limit out of range", url: "/portfolio/transactions?limit=5000", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := &mockPortfolioUsecase{TransactionsFunc: func(ctx context.Context, limit int) ([]entity.Transaction, error) {
				assert.Equal(t, tt.wantLimit, limit)
				return nil, nil
			}}
			w := httptest.NewRecorder()
			newRouter(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"transactions":[]}`, w.Body.String())
			}
		})
	}
}
