package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"arbdesk/internal/engine"
	"arbdesk/internal/model"
	"arbdesk/internal/trading"

	"github.com/gin-gonic/gin"
)

// Engine is the part of the trading engine exposed over HTTP.
type Engine interface {
	Markets() model.MarketSnapshot
	Opportunities() []model.ArbitrageOpportunity
	Trades(coin, exchange string) []model.TradeRecord
	Account() model.Account
	PnL(window int, exchange string) []trading.PnLPoint
	Status() engine.Status
	Advisory() (model.Analysis, bool)
	RefreshAdvisory() bool
	Settings() model.Settings
	ConfigurationChanged(input map[string]any) model.Settings
	ExecuteOpportunity(id string) (model.TradeRecord, bool, error)
	ManualSpot(coin, exchange string) (model.TradeRecord, bool, error)
}

type Handler struct {
	logger *slog.Logger
	engine Engine
}

func NewHandler(logger *slog.Logger, e Engine) *Handler {
	return &Handler{logger: logger, engine: e}
}

// ExecuteRequest names either a listed opportunity or a coin to buy spot.
type ExecuteRequest struct {
	OpportunityID string `json:"opportunityId"`
	Coin          string `json:"coin"`
	Exchange      string `json:"exchange"`
}

// ExecuteResponse reports the outcome of a manual execution. Rejected trades
// are not errors; they simply report executed=false.
type ExecuteResponse struct {
	Executed bool               `json:"executed"`
	Trade    *model.TradeRecord `json:"trade,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (h *Handler) GetMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Markets())
}

func (h *Handler) GetOpportunities(c *gin.Context) {
	opps := h.engine.Opportunities()
	c.JSON(http.StatusOK, gin.H{"opportunities": opps, "count": len(opps)})
}

func (h *Handler) GetTrades(c *gin.Context) {
	trades := h.engine.Trades(c.Query("coin"), c.Query("exchange"))
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (h *Handler) GetAccount(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Account())
}

// GetPnL returns the cumulative profit series. window=0 or a missing window
// uses the server default.
func (h *Handler) GetPnL(c *gin.Context) {
	window, err := strconv.Atoi(c.DefaultQuery("window", "0"))
	if err != nil || window < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": h.engine.PnL(window, c.Query("exchange"))})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *Handler) GetAdvisory(c *gin.Context) {
	a, ok := h.engine.Advisory()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis available yet"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) RefreshAdvisory(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"started": h.engine.RefreshAdvisory()})
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Settings())
}

// UpdateSettings accepts any subset of the settings fields. Values are coerced
// and clamped rather than rejected.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.engine.ConfigurationChanged(input))
}

func (h *Handler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		rec model.TradeRecord
		ok  bool
		err error
	)
	switch {
	case req.OpportunityID != "":
		rec, ok, err = h.engine.ExecuteOpportunity(req.OpportunityID)
	case req.Coin != "":
		rec, ok, err = h.engine.ManualSpot(req.Coin, req.Exchange)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "opportunityId or coin is required"})
		return
	}
	if err != nil {
		status := http.StatusNotFound
		if req.OpportunityID == "" && !errors.Is(err, engine.ErrUnknownCoin) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := ExecuteResponse{Executed: ok}
	if ok {
		resp.Trade = &rec
	}
	c.JSON(http.StatusOK, resp)
}
