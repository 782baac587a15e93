package testutil

import "time"

// DeviceCall records one control-protocol exchange for verification.
type DeviceCall struct {
	Timestamp time.Time
	Service   string
	Method    string
	Params    []any
}

// Calls returns a copy of all recorded device calls.
func (s *MockTVServer) Calls() []DeviceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]DeviceCall, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// ClearCalls discards the recorded call history, typically after setup.
func (s *MockTVServer) ClearCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// FilterDeviceCalls filters recorded calls by service and method.
func FilterDeviceCalls(calls []DeviceCall, service, method string) []DeviceCall {
	var filtered []DeviceCall
	for _, call := range calls {
		if call.Service == service && call.Method == method {
			filtered = append(filtered, call)
		}
	}
	return filtered
}

// FindDeviceCallWithParam finds the most recent call whose first
// parameter object carries the given key/value.
func FindDeviceCallWithParam(calls []DeviceCall, service, method, key string, value any) *DeviceCall {
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		if call.Service != service || call.Method != method {
			continue
		}
		if m, ok := firstParamMap(call.Params); ok {
			if v, present := m[key]; present && v == value {
				return &call
			}
		}
	}
	return nil
}
