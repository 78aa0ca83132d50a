package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/screener/domain"
	"stock_terminal/internal/feature/screener/domain/entity"
	"stock_terminal/internal/feature/screener/transport/handler"
	"stock_terminal/internal/feature/screener/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockScreenerUsecase はScreenerUsecaseインターフェースのモック実装です。
type mockScreenerUsecase struct {
	RunFunc func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error)
}

func (m *mockScreenerUsecase) Run(ctx context.Context, req usecase.Request) ([]entity.Candidate, error) {
	return m.RunFunc(ctx, req)
}

func (m *mockScreenerUsecase) Sectors() []string { return []string{"energy", "tech"} }

func (m *mockScreenerUsecase) Thresholds() entity.Thresholds { return entity.DefaultThresholds() }

func TestScreenerHandler_Screen(t *testing.T) {
	t.Parallel()

	rsi, mom := 22.0, -3.5
	tests := []struct {
		name           string
		url            string
		run            func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: custom criteria",
			url:  "/screener?symbols=AAPL,%20msft,&min_rsi=10&max_rsi=30&trend=down&signal=hold&order=rsi_asc&limit=5",
			run: func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error) {
				assert.Equal(t, []string{"AAPL", "msft"}, req.Symbols)
				assert.Equal(t, 10.0, *req.Criteria.MinRSI)
				assert.Equal(t, 30.0, *req.Criteria.MaxRSI)
				assert.Equal(t, indicator.TrendDown, req.Criteria.Trend)
				assert.Equal(t, entity.SignalHold, req.Criteria.Signal)
				assert.Equal(t, entity.OrderRSIAsc, req.Order)
				assert.Equal(t, 5, req.Limit)
				return []entity.Candidate{{
					Symbol: "AAPL", Signal: entity.SignalHold, Source: "cache",
					Snapshot: indicator.Snapshot{RSI: &rsi, Momentum: &mom, Trend: indicator.TrendDown, LastClose: 180, Points: 100},
				}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"count":1,"candidates":[{"symbol":"AAPL","signal":"HOLD","source":"cache","stale":false,
				"indicators":{"rsi":22,"sma_short":null,"sma_long":null,"momentum":-3.5,"day_change":null,
				"trend":"DOWN","last_close":180,"points":100}}]}`,
		},
		{
			name: "success: preset with no matches",
			url:  "/screener?preset=oversold&sector=tech",
			run: func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error) {
				assert.Equal(t, "oversold", req.Preset)
				assert.Equal(t, "tech", req.Sector)
				assert.Nil(t, req.Symbols)
				return []entity.Candidate{}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"count":0,"candidates":[]}`,
		},
		{
			name:           "error: rsi out of range",
			url:            "/screener?min_rsi=120",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error: bad trend",
			url:            "/screener?trend=sideways",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid screen criteria: trend \"sideways\""}`,
		},
		{
			name: "error: unknown preset",
			url:  "/screener?preset=moonshot",
			run: func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error) {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPreset, req.Preset)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"unknown screener preset: \"moonshot\""}`,
		},
		{
			name: "error: unknown sector",
			url:  "/screener?sector=crypto",
			run: func(ctx context.Context, req usecase.Request) ([]entity.Candidate, error) {
				return nil, domain.ErrUnknownSector
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"unknown sector"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handler.NewScreenerHandler(&mockScreenerUsecase{RunFunc: tt.run})
			r := gin.New()
			r.GET("/screener", h.Screen)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestScreenerHandler_Presets(t *testing.T) {
	t.Parallel()

	h := handler.NewScreenerHandler(&mockScreenerUsecase{})
	r := gin.New()
	r.GET("/screener/presets", h.Presets)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/screener/presets", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"name":"breakout"`)
	assert.Contains(t, body, `"sectors":["energy","tech"]`)
	assert.Contains(t, body, `"thresholds":{"oversold":30,"overbought":70,"momentum_strong":5,"momentum_mild":2,"day_change_breakout":1}`)
}
