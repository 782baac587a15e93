package reconciler

import (
	"context"
	"sync"
	"time"

	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/clock"

	"go.uber.org/zap"
)

const (
	// overrideGrace suppresses polling after a manual override so a
	// slow input switch is not immediately clobbered by stale data.
	overrideGrace = 5 * time.Second

	// refreshTimeout bounds one full refresh cycle against the device.
	refreshTimeout = 10 * time.Second

	// maxErrorIterations is how many consecutive failed polls a metric
	// tolerates before being degraded.
	maxErrorIterations = 3
)

// SnapshotHandler is called with a copy of the snapshot after each merge.
type SnapshotHandler func(Snapshot)

// Manager polls the TV on a fixed interval and reconciles the results
// into the one in-memory snapshot. It is the snapshot's only writer.
type Manager struct {
	client   bravia.Client
	clk      clock.Clock
	logger   *zap.Logger
	interval time.Duration

	mu           sync.RWMutex
	snapshot     Snapshot
	lastOverride time.Time
	lastError    string
	errorCounts  struct {
		power      int
		volume     int
		nowPlaying int
	}

	subsMu      sync.RWMutex
	subscribers []SnapshotHandler

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewManager creates a reconciler polling client every interval.
func NewManager(client bravia.Client, clk clock.Clock, logger *zap.Logger, interval time.Duration) *Manager {
	return &Manager{
		client:   client,
		clk:      clk,
		logger:   logger,
		interval: interval,
		snapshot: Snapshot{
			Power: PowerUnknown,
			Title: TitleSentinel,
		},
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start refreshes once immediately and then begins the poll loop.
func (m *Manager) Start() {
	m.logger.Info("Starting status reconciler",
		zap.Duration("interval", m.interval))

	m.Refresh()

	go m.pollLoop()
}

// Stop terminates the poll loop and waits for it to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	<-m.doneChan
	m.logger.Info("Status reconciler stopped")
}

func (m *Manager) pollLoop() {
	defer close(m.doneChan)

	for {
		select {
		case <-m.stopChan:
			return
		case <-m.clk.After(m.interval):
		}

		m.mu.RLock()
		sinceOverride := m.clk.Since(m.lastOverride)
		m.mu.RUnlock()

		if sinceOverride < overrideGrace {
			m.logger.Debug("Skipping poll after recent manual override")
			continue
		}

		m.Refresh()
	}
}

// Subscribe registers a handler invoked after every snapshot merge.
func (m *Manager) Subscribe(handler SnapshotHandler) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subscribers = append(m.subscribers, handler)
}

func (m *Manager) notify(s Snapshot) {
	m.subsMu.RLock()
	handlers := append([]SnapshotHandler(nil), m.subscribers...)
	m.subsMu.RUnlock()

	for _, handler := range handlers {
		handler(s)
	}
}

// Snapshot returns a copy of the current snapshot.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// LastError returns the most recent poll failure, or "" after a
// successful cycle.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// Override stamps the snapshot with a user-initiated switch before the
// device confirms it. The next polls are suppressed briefly so the TV
// has time to actually change state.
func (m *Manager) Override(title, uri string) {
	m.mu.Lock()
	m.snapshot.Title = title
	m.snapshot.URI = uri
	m.snapshot.NowPlayingID = catalog.NowPlayingID(title)
	m.snapshot.UpdatedAt = m.clk.Now()
	m.lastOverride = m.clk.Now()
	m.errorCounts.nowPlaying = 0
	s := m.snapshot
	m.mu.Unlock()

	m.notify(s)
}

// RefreshSoon schedules a single refresh after delay. Used after
// dispatched actions: device state changes are not instantaneous and an
// immediate re-fetch would observe stale values.
func (m *Manager) RefreshSoon(delay time.Duration) {
	m.clk.AfterFunc(delay, m.Refresh)
}

// Refresh performs one poll cycle: query the device, build an update
// from whatever succeeded, and merge it into the snapshot.
func (m *Manager) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	upd, pollErr := m.poll(ctx)

	m.mu.Lock()
	m.snapshot = Merge(m.snapshot, upd, m.clk.Now())
	if pollErr != nil {
		m.lastError = pollErr.Error()
	} else {
		m.lastError = ""
	}
	s := m.snapshot
	m.mu.Unlock()

	m.logger.Debug("Snapshot refreshed",
		zap.String("power", s.Power),
		zap.Int("volume", s.Volume),
		zap.Bool("muted", s.Muted),
		zap.String("title", s.Title))

	m.notify(s)
}

// poll gathers one update. Failures degrade individual metrics only
// after maxErrorIterations consecutive misses; a transient glitch keeps
// the previous values.
func (m *Manager) poll(ctx context.Context) (Update, error) {
	var upd Update
	var firstErr error

	power, err := m.client.PowerStatus(ctx)
	if err != nil {
		firstErr = err
		m.mu.Lock()
		m.errorCounts.power++
		degraded := m.errorCounts.power > maxErrorIterations
		m.mu.Unlock()

		if degraded || bravia.IsUnreachable(err) {
			offline := PowerOffline
			upd.Power = &offline
		}
		m.logger.Debug("Power poll failed", zap.Error(err))
		return upd, firstErr
	}

	m.mu.Lock()
	m.errorCounts.power = 0
	m.mu.Unlock()
	upd.Power = &power

	if power != PowerActive {
		// Dependent fields get forced to sentinels by Merge; the extra
		// queries would only return stale values.
		return upd, nil
	}

	if info, err := m.client.VolumeInformation(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		m.mu.Lock()
		m.errorCounts.volume++
		m.mu.Unlock()
		m.logger.Debug("Volume poll failed", zap.Error(err))
	} else {
		m.mu.Lock()
		m.errorCounts.volume = 0
		m.mu.Unlock()
		upd.Volume = &info.Volume
		upd.Muted = &info.Mute
	}

	title, uri, err := ResolveNowPlaying(ctx, m.client)
	if err != nil || (title == "" && uri == "") {
		if err != nil && firstErr == nil {
			firstErr = err
		}
		m.mu.Lock()
		m.errorCounts.nowPlaying++
		degraded := m.errorCounts.nowPlaying > maxErrorIterations
		m.mu.Unlock()

		if degraded {
			unknown, empty := TitleSentinel, ""
			upd.Title = &unknown
			upd.URI = &empty
		}
	} else {
		m.mu.Lock()
		m.errorCounts.nowPlaying = 0
		m.mu.Unlock()
		upd.Title = &title
		upd.URI = &uri
	}

	return upd, firstErr
}

// ResolveNowPlaying queries what the TV is displaying and derives the
// best available title. The fallback chain is deliberate: device title,
// then the user-assigned HDMI label, then a friendly name derived from
// the URI, then the raw URI.
func ResolveNowPlaying(ctx context.Context, client bravia.Client) (title, uri string, err error) {
	content, err := client.PlayingContentInfo(ctx)
	if err != nil {
		return "", "", err
	}

	title = content.Title
	uri = content.URI

	if uri != "" && content.Source != "app" && catalog.FriendlyInputName(uri) != "" {
		// Physical input: prefer the user-set label (e.g. "PS5")
		if inputs, inErr := client.ExternalInputsStatus(ctx); inErr == nil {
			for _, in := range inputs {
				if in.URI == uri && in.Label != "" {
					title = in.Label
					break
				}
			}
		}
	}

	if title == "" && uri != "" {
		if name := catalog.FriendlyInputName(uri); name != "" {
			title = name
		} else {
			title = catalog.AppName(uri)
		}
	}

	return title, uri, nil
}
