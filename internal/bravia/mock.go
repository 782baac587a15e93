package bravia

import (
	"context"
	"sync"
	"time"
)

// MockClient implements Client for testing. It holds fake TV state,
// records every call, and applies commands to its own state so tests
// can verify round trips without a real device.
type MockClient struct {
	mu sync.Mutex

	power   string
	volume  VolumeInformation
	playing PlayingContent
	inputs  []ExternalInput
	sources []Source
	apps    []AppInfo

	unreachable bool
	failWith    error

	calls []RecordedCall
}

// RecordedCall captures one call made against the mock.
type RecordedCall struct {
	Method string
	Arg    string
	Time   time.Time
}

// NewMockClient creates a mock TV in standby with default audio state.
func NewMockClient() *MockClient {
	return &MockClient{
		power: PowerStandby,
		volume: VolumeInformation{
			Target:    "speaker",
			Volume:    20,
			MaxVolume: 100,
		},
	}
}

// SetUnreachable makes every subsequent call fail with ErrUnreachable.
func (m *MockClient) SetUnreachable(unreachable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreachable = unreachable
}

// FailWith makes every subsequent call fail with err (nil to clear).
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// SetPowerState sets the fake power state.
func (m *MockClient) SetPowerState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = state
}

// SetVolumeState sets the fake speaker volume and mute flag.
func (m *MockClient) SetVolumeState(volume int, muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume.Volume = volume
	m.volume.Mute = muted
}

// SetPlayingContent sets what the fake TV reports as playing.
func (m *MockClient) SetPlayingContent(title, uri, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = PlayingContent{Title: title, URI: uri, Source: source}
}

// SetExternalInputs sets the fake physical input list.
func (m *MockClient) SetExternalInputs(inputs []ExternalInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = inputs
}

// SetSources sets the fake source list.
func (m *MockClient) SetSources(sources []Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = sources
}

// SetApplications sets the fake installed application list.
func (m *MockClient) SetApplications(apps []AppInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = apps
}

// Calls returns a copy of every recorded call.
func (m *MockClient) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]RecordedCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallsTo returns the recorded calls for one method.
func (m *MockClient) CallsTo(method string) []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var calls []RecordedCall
	for _, c := range m.calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// ClearCalls discards the recorded call history.
func (m *MockClient) ClearCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// record must be called with the mutex held.
func (m *MockClient) record(method, arg string) {
	m.calls = append(m.calls, RecordedCall{Method: method, Arg: arg, Time: time.Now()})
}

// fail must be called with the mutex held.
func (m *MockClient) fail() error {
	if m.unreachable {
		return ErrUnreachable
	}
	return m.failWith
}

func (m *MockClient) PowerStatus(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PowerStatus", "")
	if err := m.fail(); err != nil {
		return "", err
	}
	return m.power, nil
}

func (m *MockClient) SetPowerStatus(ctx context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.record("SetPowerStatus", "on")
	} else {
		m.record("SetPowerStatus", "off")
	}
	if err := m.fail(); err != nil {
		return err
	}
	if on {
		m.power = PowerActive
	} else {
		m.power = PowerStandby
	}
	return nil
}

func (m *MockClient) VolumeInformation(ctx context.Context) (*VolumeInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("VolumeInformation", "")
	if err := m.fail(); err != nil {
		return nil, err
	}
	info := m.volume
	return &info, nil
}

func (m *MockClient) SetVolume(ctx context.Context, volume string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetVolume", volume)
	if err := m.fail(); err != nil {
		return err
	}
	switch volume {
	case "+5":
		m.volume.Volume += 5
	case "-5":
		m.volume.Volume -= 5
	default:
		var v int
		for _, ch := range volume {
			if ch < '0' || ch > '9' {
				return &DeviceError{Code: 3, Message: "Illegal Argument"}
			}
			v = v*10 + int(ch-'0')
		}
		m.volume.Volume = v
	}
	return nil
}

func (m *MockClient) SetMute(ctx context.Context, muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if muted {
		m.record("SetMute", "true")
	} else {
		m.record("SetMute", "false")
	}
	if err := m.fail(); err != nil {
		return err
	}
	m.volume.Mute = muted
	return nil
}

func (m *MockClient) PlayingContentInfo(ctx context.Context) (*PlayingContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("PlayingContentInfo", "")
	if err := m.fail(); err != nil {
		return nil, err
	}
	content := m.playing
	return &content, nil
}

func (m *MockClient) ExternalInputsStatus(ctx context.Context) ([]ExternalInput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ExternalInputsStatus", "")
	if err := m.fail(); err != nil {
		return nil, err
	}
	inputs := make([]ExternalInput, len(m.inputs))
	copy(inputs, m.inputs)
	return inputs, nil
}

func (m *MockClient) SourceList(ctx context.Context) ([]Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SourceList", "")
	if err := m.fail(); err != nil {
		return nil, err
	}
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	return sources, nil
}

func (m *MockClient) ApplicationList(ctx context.Context) ([]AppInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ApplicationList", "")
	if err := m.fail(); err != nil {
		return nil, err
	}
	apps := make([]AppInfo, len(m.apps))
	copy(apps, m.apps)
	return apps, nil
}

func (m *MockClient) SetActiveApp(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetActiveApp", uri)
	if err := m.fail(); err != nil {
		return err
	}
	for _, app := range m.apps {
		if app.URI == uri {
			m.playing = PlayingContent{Title: app.Title, URI: uri, Source: "app"}
			return nil
		}
	}
	return &DeviceError{Code: 12, Message: "No Such Method"}
}

func (m *MockClient) SetPlayContent(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetPlayContent", uri)
	if err := m.fail(); err != nil {
		return err
	}
	m.playing = PlayingContent{URI: uri, Source: "extInput"}
	for _, in := range m.inputs {
		if in.URI == uri {
			m.playing.Title = in.Title
		}
	}
	return nil
}

func (m *MockClient) SendIRCC(ctx context.Context, code RemoteCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SendIRCC", string(code))
	return m.fail()
}

func (m *MockClient) SendText(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SendText", text)
	return m.fail()
}
