package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"arbdesk/internal/advisory"
	"arbdesk/internal/arbitrage"
	"arbdesk/internal/config"
	"arbdesk/internal/market"
	"arbdesk/internal/model"
	"arbdesk/internal/schedule"
	"arbdesk/internal/trading"
)

const (
	DefaultTickInterval   = 800 * time.Millisecond
	DefaultStatusInterval = time.Second

	minLatency   = 3 * time.Millisecond
	latencySpan  = 7 * time.Millisecond
	manualReason = "Manual"
	// manualConfidence and manualTarget describe a user-issued BUY.
	manualConfidence = 0.95
	manualTarget     = 1.05
)

var ErrUnknownCoin = errors.New("unknown coin")

// Options holds the static wiring of an Engine.
type Options struct {
	Assets    []model.Asset
	Exchanges []string
	Fees      arbitrage.FeeModel
	Settings  model.Settings

	InitialBalance float64
	TradeLogLimit  int
	PnLWindow      int
	Debounce       time.Duration
	SeedJitter     float64
	TickJitter     float64

	TickInterval     time.Duration
	StatusInterval   time.Duration
	AdvisoryInterval time.Duration
	AdvisoryCooldown time.Duration
	AdvisoryTimeout  time.Duration
	TopOpportunities int
	TopMarkets       int
}

// state is everything the engine mutates. It is only touched under Engine.mu.
type state struct {
	market        model.MarketSnapshot
	opportunities []model.ArbitrageOpportunity
	settings      model.Settings
	analysis      *model.Analysis
	lastAutoID    string
	startedAt     time.Time
	uptime        time.Duration
	latency       time.Duration
	running       bool
}

// Engine owns the simulated market, the detector and the ledger, and serializes
// every mutation behind a single lock. Observers are notified after the lock is
// released.
type Engine struct {
	logger    *slog.Logger
	clock     schedule.Clock
	scheduler schedule.Scheduler
	rng       market.Rand
	opts      Options

	simulator *market.Simulator
	detector  *arbitrage.Detector
	ledger    *trading.Ledger
	executor  *trading.Executor
	poller    *advisory.Poller

	mu      sync.Mutex
	st      state
	cancels []schedule.CancelFunc
	stop    chan struct{}

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an Engine and seeds the initial market.
func New(logger *slog.Logger, clock schedule.Clock, scheduler schedule.Scheduler, rng market.Rand, client advisory.Client, opts Options) *Engine {
	opts = withDefaults(opts)

	e := &Engine{
		logger:    logger,
		clock:     clock,
		scheduler: scheduler,
		rng:       rng,
		opts:      opts,
	}
	e.simulator = market.NewSimulator(rng, clock, opts.SeedJitter, opts.TickJitter)
	e.detector = arbitrage.NewDetector(logger, opts.Fees)
	e.ledger = trading.NewLedger(opts.InitialBalance, opts.TradeLogLimit)
	e.executor = trading.NewExecutor(logger, opts.Fees, clock, rng, opts.Debounce, e.ledger)
	e.poller = advisory.NewPoller(logger, client, clock, opts.AdvisoryCooldown, opts.AdvisoryTimeout, e.advisoryRequest, e.applyAnalysis)

	e.st.settings = config.NormalizeSettings(opts.Settings)
	e.st.market = e.simulator.Initialize(opts.Assets, opts.Exchanges)
	e.st.opportunities = e.detect()

	return e
}

func withDefaults(o Options) Options {
	if len(o.Assets) == 0 {
		o.Assets = market.Assets
	}
	if len(o.Exchanges) == 0 {
		o.Exchanges = market.Exchanges
	}
	if o.Fees == (arbitrage.FeeModel{}) {
		o.Fees = arbitrage.DefaultFees()
	}
	if o.Settings == (model.Settings{}) {
		o.Settings = config.DefaultSettings()
	}
	if o.InitialBalance <= 0 {
		o.InitialBalance = trading.DefaultInitialBalance
	}
	if o.PnLWindow <= 0 {
		o.PnLWindow = trading.DefaultPnLWindow
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	if o.AdvisoryInterval <= 0 {
		o.AdvisoryInterval = advisory.DefaultInterval
	}
	return o
}

// Subscribe registers an observer for engine events.
func (e *Engine) Subscribe(o Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) publish(events ...Event) {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	for _, ev := range events {
		for _, o := range e.observers {
			o.Notify(ev)
		}
	}
}

// Start registers the price, status and advisory timers and requests a first
// analysis. The timers stop when ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.st.running {
		e.mu.Unlock()
		return
	}
	e.st.running = true
	e.st.startedAt = e.clock.Now()
	e.st.uptime = 0
	e.stop = make(chan struct{})
	stop := e.stop
	e.cancels = []schedule.CancelFunc{
		e.scheduler.Every(e.opts.TickInterval, e.Tick),
		e.scheduler.Every(e.opts.StatusInterval, e.updateStatus),
		e.scheduler.Every(e.opts.AdvisoryInterval, func() { e.poller.Poll() }),
	}
	e.mu.Unlock()

	e.logger.Info("Engine started",
		"assets", len(e.opts.Assets),
		"exchanges", len(e.opts.Exchanges),
		"tickInterval", e.opts.TickInterval,
	)
	e.poller.Poll()

	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-stop:
		}
	}()
}

// Stop cancels every timer. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.running {
		return
	}
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
	e.st.running = false
	close(e.stop)
	e.logger.Info("Engine stopped")
}

// Wait blocks until an in-flight advisory request has been applied.
func (e *Engine) Wait() {
	e.poller.Wait()
}

// Tick advances the market one step, rebuilds the opportunity set and runs the
// automatic strategy.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.st.market = e.simulator.Tick(e.st.market)
	e.st.opportunities = e.detect()
	events := []Event{
		{Type: EventMarket, Data: e.st.market.Clone()},
		{Type: EventOpportunities, Data: cloneOpportunities(e.st.opportunities)},
	}
	if rec, ok := e.autoTrade(); ok {
		events = append(events, Event{Type: EventTrade, Data: rec})
	}
	e.mu.Unlock()

	e.publish(events...)
}

// detect rebuilds the opportunity set from the current market and settings.
func (e *Engine) detect() []model.ArbitrageOpportunity {
	return e.detector.Detect(e.st.market, e.st.settings.TradeAmount, e.st.settings.MinSpreadPercent, e.clock.Now())
}

// autoTrade executes the top opportunity once each time a new one takes the lead.
func (e *Engine) autoTrade() (model.TradeRecord, bool) {
	s := e.st.settings
	if !s.AutoTrade || !s.TradingMode.AllowsArb() || len(e.st.opportunities) == 0 {
		return model.TradeRecord{}, false
	}
	top := e.st.opportunities[0]
	if top.ID == e.st.lastAutoID {
		return model.TradeRecord{}, false
	}
	e.st.lastAutoID = top.ID
	return e.executor.Execute(trading.ArbIntent(top), s.TradeAmount)
}

func (e *Engine) updateStatus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.uptime = e.clock.Now().Sub(e.st.startedAt).Truncate(time.Second)
	e.st.latency = minLatency + time.Duration(e.rng.Float64()*float64(latencySpan))
}

// ManualExecute runs a user-issued intent at the current trade amount. A
// rejected trade returns false and changes nothing.
func (e *Engine) ManualExecute(in trading.Intent) (model.TradeRecord, bool) {
	e.mu.Lock()
	rec, ok := e.executor.Execute(in, e.st.settings.TradeAmount)
	e.mu.Unlock()

	if ok {
		e.publish(Event{Type: EventTrade, Data: rec})
	}
	return rec, ok
}

// ExecuteOpportunity runs the currently listed opportunity with the given id.
func (e *Engine) ExecuteOpportunity(id string) (model.TradeRecord, bool, error) {
	opp, found := e.Opportunity(id)
	if !found {
		return model.TradeRecord{}, false, fmt.Errorf("opportunity %q not found", id)
	}
	rec, ok := e.ManualExecute(trading.ArbIntent(opp))
	return rec, ok, nil
}

// ManualSpot buys coin on exchange at the current quote. An empty exchange
// uses the first quote and the default spot venues.
func (e *Engine) ManualSpot(coin, exchange string) (model.TradeRecord, bool, error) {
	e.mu.Lock()
	cm, found := e.st.market.Lookup(coin)
	e.mu.Unlock()
	if !found || len(cm.Prices) == 0 {
		return model.TradeRecord{}, false, fmt.Errorf("%w: %s", ErrUnknownCoin, coin)
	}

	price := cm.Prices[0].Price
	if exchange != "" {
		quote, ok := findQuote(cm, exchange)
		if !ok {
			return model.TradeRecord{}, false, fmt.Errorf("exchange %q does not quote %s", exchange, coin)
		}
		price = quote.Price
	}

	signal := model.SpotSignal{
		Coin:        coin,
		Action:      model.ActionBuy,
		Confidence:  manualConfidence,
		TargetPrice: price * manualTarget,
		Reason:      manualReason,
	}
	rec, ok := e.ManualExecute(trading.SpotIntent(signal, exchange))
	return rec, ok, nil
}

func findQuote(cm model.CoinMarket, exchange string) (model.PriceQuote, bool) {
	for _, q := range cm.Prices {
		if q.Exchange == exchange {
			return q, true
		}
	}
	return model.PriceQuote{}, false
}

// ConfigurationChanged merges loosely typed settings input, clamps it, and
// rebuilds the opportunity set when detection inputs moved. A rebuilt set
// gets the same automatic strategy pass as a tick.
func (e *Engine) ConfigurationChanged(input map[string]any) model.Settings {
	e.mu.Lock()
	prev := e.st.settings
	next := config.ApplySettings(prev, input)
	e.st.settings = next

	events := []Event{{Type: EventSettings, Data: next}}
	if next.TradeAmount != prev.TradeAmount || next.MinSpreadPercent != prev.MinSpreadPercent {
		e.st.opportunities = e.detect()
		events = append(events, Event{Type: EventOpportunities, Data: cloneOpportunities(e.st.opportunities)})
		if rec, ok := e.autoTrade(); ok {
			events = append(events, Event{Type: EventTrade, Data: rec})
		}
	}
	e.mu.Unlock()

	e.logger.Info("Settings updated",
		"tradingMode", next.TradingMode,
		"tradeAmount", next.TradeAmount,
		"minSpreadPercent", next.MinSpreadPercent,
		"autoTrade", next.AutoTrade,
		"enableAdvisory", next.EnableAdvisory,
	)
	e.publish(events...)
	return next
}

// RefreshAdvisory requests an analysis now and reports whether one was started.
func (e *Engine) RefreshAdvisory() bool {
	return e.poller.Poll()
}

func (e *Engine) advisoryRequest() (advisory.Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.st.settings.EnableAdvisory {
		return advisory.Request{}, false
	}
	return advisory.BuildRequest(e.st.opportunities, e.st.market, e.opts.TopOpportunities, e.opts.TopMarkets), true
}

func (e *Engine) applyAnalysis(a model.Analysis) {
	e.mu.Lock()
	e.st.analysis = &a
	e.mu.Unlock()

	e.publish(Event{Type: EventAdvisory, Data: a})
}

func cloneOpportunities(opps []model.ArbitrageOpportunity) []model.ArbitrageOpportunity {
	return append([]model.ArbitrageOpportunity{}, opps...)
}
