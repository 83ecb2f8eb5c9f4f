package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"KryptoMarket/internal/domain/models"
	domrepo "KryptoMarket/internal/domain/repository"
	"KryptoMarket/pkg/poller"
	xlogger "KryptoMarket/pkg/logger"
)

// ViewKey identifies a live analysis view.
type ViewKey struct {
	Pair     string
	Interval string
	Limit    int
}

func (k ViewKey) String() string {
	return k.Pair + "@" + k.Interval + "/" + strconv.Itoa(k.Limit)
}

// RefreshFunc produces a fresh analysis for a view.
type RefreshFunc func(ctx context.Context) (*models.Analysis, error)

// View is the live context of one analysis page. It owns a periodic refresh
// task and fans every result out to its subscribers.
type View struct {
	key     ViewKey
	task    *poller.Task
	refresh RefreshFunc
	logger  *xlogger.Logger

	mu     sync.Mutex
	latest *models.ViewUpdate
	subs   map[int]chan models.ViewUpdate
	nextID int
}

func NewView(key ViewKey, period time.Duration, refresh RefreshFunc, logger *xlogger.Logger) *View {
	if logger == nil {
		logger = xlogger.Nop()
	}
	v := &View{
		key:     key,
		refresh: refresh,
		logger:  logger.With(xlogger.String("view", key.String())),
		subs:    make(map[int]chan models.ViewUpdate),
	}
	v.task = poller.New("view:"+key.String(), period, v.run, logger)
	return v
}

func (v *View) Key() ViewKey { return v.key }

// Start refreshes right away and then every period until Stop or ctx is done.
func (v *View) Start(ctx context.Context) error {
	return v.task.Start(ctx)
}

// Stop cancels the refresh task, waits for an in-flight refresh and closes
// every subscriber channel.
func (v *View) Stop() {
	v.task.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()
	for id, ch := range v.subs {
		close(ch)
		delete(v.subs, id)
	}
}

// Latest returns the most recent update, if a refresh has completed.
func (v *View) Latest() (models.ViewUpdate, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.latest == nil {
		return models.ViewUpdate{}, false
	}
	return *v.latest, true
}

// Updates subscribes to fresh results. The channel holds one value; a result
// nobody has read yet is replaced by the newer one. It is primed with the
// latest result when there is one. cancel unsubscribes and is idempotent.
func (v *View) Updates() (updates <-chan models.ViewUpdate, cancel func()) {
	ch := make(chan models.ViewUpdate, 1)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	if v.latest != nil {
		ch <- *v.latest
	}
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if _, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(ch)
			}
		})
	}
}

func (v *View) run(ctx context.Context) {
	a, err := v.refresh(ctx)
	if ctx.Err() != nil {
		// stopped while refreshing, the result belongs to nobody
		return
	}

	u := models.ViewUpdate{Analysis: a, At: time.Now().UTC()}
	if err != nil {
		u.Analysis = nil
		u.Error = err.Error()
		v.logger.Warn("view refresh failed", xlogger.Error(err))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil && v.latest != nil && v.latest.Analysis != nil {
		// keep serving the last good analysis alongside the error
		u.Analysis = v.latest.Analysis
	}
	v.latest = &u
	for _, ch := range v.subs {
		offer(ch, u)
	}
}

// offer puts u into a one-slot channel, dropping a stale value if needed.
// Callers hold the view lock, so no other sender races.
func offer(ch chan models.ViewUpdate, u models.ViewUpdate) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- u
}

type viewEntry struct {
	view *View
	refs int
}

// ViewManager shares live views between watchers of the same symbol and
// interval, and stops a view when its last watcher leaves.
type ViewManager struct {
	analysis *AnalysisUseCase
	period   time.Duration
	metrics  domrepo.Metrics
	logger   *xlogger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	views map[ViewKey]*viewEntry
}

func NewViewManager(analysis *AnalysisUseCase, period time.Duration, metrics domrepo.Metrics, logger *xlogger.Logger) *ViewManager {
	if period <= 0 {
		period = time.Minute
	}
	if metrics == nil {
		metrics = domrepo.NoopMetrics{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewManager{
		analysis: analysis,
		period:   period,
		metrics:  metrics,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		views:    make(map[ViewKey]*viewEntry),
	}
}

// Key resolves user input into the key a view would be registered under.
func (m *ViewManager) Key(symbol, interval string, limit int) (ViewKey, error) {
	pair, exInterval, n, err := m.analysis.Resolve(symbol, interval, limit)
	if err != nil {
		return ViewKey{}, err
	}
	return ViewKey{Pair: pair, Interval: exInterval, Limit: n}, nil
}

// Acquire returns the live view for the key, starting one if needed. Every
// Acquire must be paired with a Release.
func (m *ViewManager) Acquire(key ViewKey) (*View, error) {
	if err := m.ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.views[key]; ok {
		e.refs++
		return e.view, nil
	}

	v := NewView(key, m.period, func(ctx context.Context) (*models.Analysis, error) {
		return m.analysis.Detail(ctx, key.Pair, key.Interval, key.Limit)
	}, m.logger)
	if err := v.Start(m.ctx); err != nil {
		return nil, err
	}
	m.views[key] = &viewEntry{view: v, refs: 1}
	m.metrics.SetActiveViews(len(m.views))
	m.logger.Debug("view started", xlogger.String("view", key.String()))
	return v, nil
}

// Release drops one reference and stops the view when none are left.
func (m *ViewManager) Release(v *View) {
	m.mu.Lock()
	e, ok := m.views[v.key]
	if !ok || e.view != v {
		m.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.views, v.key)
	m.metrics.SetActiveViews(len(m.views))
	m.mu.Unlock()

	v.Stop()
	m.logger.Debug("view stopped", xlogger.String("view", v.key.String()))
}

// Snapshot returns the latest analysis of a live view, if any.
func (m *ViewManager) Snapshot(key ViewKey) (*models.Analysis, bool) {
	m.mu.Lock()
	e, ok := m.views[key]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	u, ok := e.view.Latest()
	if !ok || u.Analysis == nil || u.Error != "" {
		return nil, false
	}
	return u.Analysis, true
}

// Active is the number of live views.
func (m *ViewManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// StopAll stops every view. Later Acquire calls fail.
func (m *ViewManager) StopAll() {
	m.cancel()

	m.mu.Lock()
	views := make([]*View, 0, len(m.views))
	for k, e := range m.views {
		views = append(views, e.view)
		delete(m.views, k)
	}
	m.metrics.SetActiveViews(0)
	m.mu.Unlock()

	for _, v := range views {
		v.Stop()
	}
}
