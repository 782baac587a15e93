package bravia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client defines the operations the gateway needs from the TV's IP
// control protocol.
type Client interface {
	PowerStatus(ctx context.Context) (string, error)
	SetPowerStatus(ctx context.Context, on bool) error
	VolumeInformation(ctx context.Context) (*VolumeInformation, error)
	SetVolume(ctx context.Context, volume string) error
	SetMute(ctx context.Context, muted bool) error
	PlayingContentInfo(ctx context.Context) (*PlayingContent, error)
	ExternalInputsStatus(ctx context.Context) ([]ExternalInput, error)
	SourceList(ctx context.Context) ([]Source, error)
	ApplicationList(ctx context.Context) ([]AppInfo, error)
	SetActiveApp(ctx context.Context, uri string) error
	SetPlayContent(ctx context.Context, uri string) error
	SendIRCC(ctx context.Context, code RemoteCode) error
	SendText(ctx context.Context, text string) error
}

const requestTimeout = 5 * time.Second

// HTTPClient implements Client against the TV's HTTP control endpoint.
// Each call opens a fresh connection and discards it afterwards; the
// TV drops idle connections aggressively in standby, so keep-alives
// only cause spurious failures.
type HTTPClient struct {
	baseURL    string
	psk        string
	logger     *zap.Logger
	httpClient *http.Client
}

// NewHTTPClient creates a client for the TV at baseURL
// (e.g. "http://192.168.1.50") authenticating with the pre-shared key.
func NewHTTPClient(baseURL, psk string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		psk:     psk,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// call performs one JSON control-protocol exchange with the TV.
func (c *HTTPClient) call(ctx context.Context, service, method, version string, params []any) ([]json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(request{
		ID:      1,
		Method:  method,
		Version: version,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + "/sony/" + service
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-PSK", c.psk)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthRejected
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &DeviceError{Code: resp.StatusCode, Message: string(data)}
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Error) > 0 {
		devErr := &DeviceError{Code: -1, Message: "unknown"}
		json.Unmarshal(parsed.Error[0], &devErr.Code)
		if len(parsed.Error) > 1 {
			json.Unmarshal(parsed.Error[1], &devErr.Message)
		}
		c.logger.Debug("TV rejected request",
			zap.String("service", service),
			zap.String("method", method),
			zap.Int("code", devErr.Code),
			zap.String("message", devErr.Message))
		return nil, devErr
	}

	return parsed.Result, nil
}

// PowerStatus queries the TV's power state ("active" or "standby").
func (c *HTTPClient) PowerStatus(ctx context.Context) (string, error) {
	result, err := c.call(ctx, "system", "getPowerStatus", "1.0", nil)
	if err != nil {
		return "", err
	}
	if len(result) == 0 {
		return "", fmt.Errorf("empty power status result")
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result[0], &status); err != nil {
		return "", fmt.Errorf("failed to parse power status: %w", err)
	}
	return status.Status, nil
}

// SetPowerStatus turns the TV on or puts it into standby.
func (c *HTTPClient) SetPowerStatus(ctx context.Context, on bool) error {
	_, err := c.call(ctx, "system", "setPowerStatus", "1.0", []any{
		map[string]any{"status": on},
	})
	return err
}

// VolumeInformation returns the speaker target's volume and mute state.
// Falls back to the first reported target when no speaker entry exists
// (headphone-only configurations).
func (c *HTTPClient) VolumeInformation(ctx context.Context) (*VolumeInformation, error) {
	result, err := c.call(ctx, "audio", "getVolumeInformation", "1.0", nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty volume information result")
	}

	var targets []VolumeInformation
	if err := json.Unmarshal(result[0], &targets); err != nil {
		return nil, fmt.Errorf("failed to parse volume information: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no volume targets reported")
	}

	for i := range targets {
		if targets[i].Target == "speaker" {
			return &targets[i], nil
		}
	}
	return &targets[0], nil
}

// SetVolume sets the speaker volume. The value may be absolute ("37")
// or relative ("+5", "-5"); the protocol takes it as a string either way.
func (c *HTTPClient) SetVolume(ctx context.Context, volume string) error {
	_, err := c.call(ctx, "audio", "setAudioVolume", "1.0", []any{
		map[string]any{"target": "speaker", "volume": volume},
	})
	return err
}

// SetMute mutes or unmutes the TV.
func (c *HTTPClient) SetMute(ctx context.Context, muted bool) error {
	_, err := c.call(ctx, "audio", "setAudioMute", "1.0", []any{
		map[string]any{"status": muted},
	})
	return err
}

// PlayingContentInfo queries what the TV is currently displaying.
func (c *HTTPClient) PlayingContentInfo(ctx context.Context) (*PlayingContent, error) {
	result, err := c.call(ctx, "avContent", "getPlayingContentInfo", "1.0", nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return &PlayingContent{}, nil
	}

	var content PlayingContent
	if err := json.Unmarshal(result[0], &content); err != nil {
		return nil, fmt.Errorf("failed to parse playing content: %w", err)
	}
	return &content, nil
}

// ExternalInputsStatus lists the TV's physical inputs with their
// user-assigned labels and connection flags.
func (c *HTTPClient) ExternalInputsStatus(ctx context.Context) ([]ExternalInput, error) {
	result, err := c.call(ctx, "avContent", "getCurrentExternalInputsStatus", "1.1", nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	var inputs []ExternalInput
	if err := json.Unmarshal(result[0], &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse external inputs: %w", err)
	}
	return inputs, nil
}

// SourceList returns the TV's configured source list.
func (c *HTTPClient) SourceList(ctx context.Context) ([]Source, error) {
	result, err := c.call(ctx, "avContent", "getSourceList", "1.0", nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	var sources []Source
	if err := json.Unmarshal(result[0], &sources); err != nil {
		return nil, fmt.Errorf("failed to parse source list: %w", err)
	}
	return sources, nil
}

// ApplicationList returns the applications installed on the TV.
func (c *HTTPClient) ApplicationList(ctx context.Context) ([]AppInfo, error) {
	result, err := c.call(ctx, "appControl", "getApplicationList", "1.0", nil)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	var apps []AppInfo
	if err := json.Unmarshal(result[0], &apps); err != nil {
		return nil, fmt.Errorf("failed to parse application list: %w", err)
	}
	return apps, nil
}

// SetActiveApp launches the application identified by uri. The uri is
// device-defined and passed through unmodified.
func (c *HTTPClient) SetActiveApp(ctx context.Context, uri string) error {
	_, err := c.call(ctx, "appControl", "setActiveApp", "1.0", []any{
		map[string]any{"uri": uri},
	})
	return err
}

// SetPlayContent switches the TV to the input identified by uri.
func (c *HTTPClient) SetPlayContent(ctx context.Context, uri string) error {
	_, err := c.call(ctx, "avContent", "setPlayContent", "1.0", []any{
		map[string]any{"uri": uri},
	})
	return err
}

// SendText forwards text to the TV's on-screen text field.
func (c *HTTPClient) SendText(ctx context.Context, text string) error {
	_, err := c.call(ctx, "appControl", "setTextForm", "1.0", []any{text})
	return err
}

const irccEnvelope = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:X_SendIRCC xmlns:u="urn:schemas-sony-com:service:IRCC:1">
      <IRCCCode>%s</IRCCCode>
    </u:X_SendIRCC>
  </s:Body>
</s:Envelope>`

// SendIRCC simulates a remote-control button press. Unlike the JSON
// endpoints this one speaks SOAP.
func (c *HTTPClient) SendIRCC(ctx context.Context, code RemoteCode) error {
	body := fmt.Sprintf(irccEnvelope, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sony/IRCC", bytes.NewReader([]byte(body)))
	if err != nil {
		return fmt.Errorf("failed to create IRCC request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("X-Auth-PSK", c.psk)
	req.Header.Set("SOAPACTION", `"urn:schemas-sony-com:service:IRCC:1#X_SendIRCC"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return ErrAuthRejected
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return &DeviceError{Code: resp.StatusCode, Message: string(data)}
	}
	return nil
}
