// Package appium implements core.Automation against an Appium server
// via the W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Client handles HTTP communication with the Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  locator.Platform
	screenW   int
	screenH   int
}

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for install/recording
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return core.ErrDriverUnreachable.WithCause(err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	// Extract platform from the matched capabilities
	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		if platform, ok := caps["platformName"].(string); ok {
			c.platform = locator.Platform(strings.ToLower(platform))
		}
	}

	c.fetchScreenSize()

	// Tune driver settings for predictable element finding
	if c.platform == locator.IOS {
		// XCUITest: don't wait for animations to settle
		c.SetSettings(map[string]interface{}{
			"waitForIdleTimeout":      0,
			"animationCoolOffTimeout": 0,
		})
	} else {
		// UiAutomator2: no extra wait when finding elements
		c.SetSettings(map[string]interface{}{
			"waitForIdleTimeout":     0,
			"waitForSelectorTimeout": 0,
		})
	}

	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the active session identifier.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Platform returns the platform of the active session.
func (c *Client) Platform() locator.Platform {
	return c.platform
}

// ScreenSize returns the screen dimensions.
func (c *Client) ScreenSize() (int, int) {
	return c.screenW, c.screenH
}

func (c *Client) fetchScreenSize() {
	rect, err := c.WindowRect()
	if err != nil {
		return
	}
	c.screenW = rect.Width
	c.screenH = rect.Height
}

// Element Operations

// FindElement resolves a strategy pair to an element reference.
func (c *Client) FindElement(using, value string) (string, error) {
	body := map[string]interface{}{
		"using": using,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/element", body)
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("element not found")
	}

	if errMsg, ok := elemValue["error"].(string); ok {
		return "", fmt.Errorf("%s", errMsg)
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", fmt.Errorf("element not found")
	}
	return id, nil
}

// Contexts

// Contexts returns the available automation contexts.
func (c *Client) Contexts() ([]string, error) {
	resp, err := c.get(c.sessionPath() + "/contexts")
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var contexts []string
	for _, v := range values {
		if name, ok := v.(string); ok {
			contexts = append(contexts, name)
		}
	}
	return contexts, nil
}

// CurrentContext returns the active automation context.
func (c *Client) CurrentContext() (string, error) {
	resp, err := c.get(c.sessionPath() + "/context")
	if err != nil {
		return "", err
	}
	name, _ := resp["value"].(string)
	return name, nil
}

// SwitchContext activates the named context.
func (c *Client) SwitchContext(name string) error {
	_, err := c.post(c.sessionPath()+"/context", map[string]interface{}{
		"name": name,
	})
	return err
}

// Window

// WindowRect returns the window geometry.
func (c *Client) WindowRect() (core.Rect, error) {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return core.Rect{}, err
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Rect{}, fmt.Errorf("invalid rect response")
	}

	xf, _ := value["x"].(float64)
	yf, _ := value["y"].(float64)
	wf, _ := value["width"].(float64)
	hf, _ := value["height"].(float64)
	return core.Rect{X: int(xf), Y: int(yf), Width: int(wf), Height: int(hf)}, nil
}

// SetWindowRect updates the window geometry.
func (c *Client) SetWindowRect(r core.Rect) error {
	_, err := c.post(c.sessionPath()+"/window/rect", map[string]interface{}{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return err
}

// Pointer Actions (W3C)

// PerformActions runs a low-level pointer sequence as a single touch
// input source.
func (c *Client) PerformActions(actions []core.PointerAction) error {
	steps := make([]map[string]interface{}, 0, len(actions))
	for _, a := range actions {
		step := map[string]interface{}{"type": a.Type}
		switch a.Type {
		case core.ActionMove:
			step["duration"] = a.Duration.Milliseconds()
			if a.Origin != "" {
				step["origin"] = map[string]interface{}{w3cElementKey: a.Origin}
				step["x"] = 0
				step["y"] = 0
			} else {
				step["origin"] = "viewport"
				step["x"] = a.X
				step["y"] = a.Y
			}
		case core.ActionDown, core.ActionUp:
			step["button"] = a.Button
		case core.ActionPause:
			step["duration"] = a.Duration.Milliseconds()
		}
		steps = append(steps, step)
	}

	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    steps,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// ReleaseActions releases any depressed pointers and keys.
func (c *Client) ReleaseActions() error {
	_, err := c.delete(c.sessionPath() + "/actions")
	return err
}

// Screen Operations

// Source returns the UI-tree serialization.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// StartRecording starts screen recording.
func (c *Client) StartRecording() error {
	_, err := c.post(c.sessionPath()+"/appium/start_recording_screen", map[string]interface{}{})
	return err
}

// StopRecording stops recording and returns the video bytes.
func (c *Client) StopRecording() ([]byte, error) {
	resp, err := c.post(c.sessionPath()+"/appium/stop_recording_screen", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid recording response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Device Files

// PushFile writes a file onto the device.
func (c *Client) PushFile(devicePath string, data []byte) error {
	_, err := c.post(c.sessionPath()+"/appium/device/push_file", map[string]interface{}{
		"path": devicePath,
		"data": base64.StdEncoding.EncodeToString(data),
	})
	return err
}

// PullFile reads a file from the device.
func (c *Client) PullFile(devicePath string) ([]byte, error) {
	resp, err := c.post(c.sessionPath()+"/appium/device/pull_file", map[string]interface{}{
		"path": devicePath,
	})
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid pull_file response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Clipboard

// GetClipboard returns clipboard text.
func (c *Client) GetClipboard() (string, error) {
	resp, err := c.post(c.sessionPath()+"/appium/device/get_clipboard", map[string]interface{}{
		"contentType": "plaintext",
	})
	if err != nil {
		return "", err
	}
	encoded, _ := resp["value"].(string)
	decoded, _ := base64.StdEncoding.DecodeString(encoded)
	return string(decoded), nil
}

// SetClipboard sets clipboard text.
func (c *Client) SetClipboard(text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := c.post(c.sessionPath()+"/appium/device/set_clipboard", map[string]interface{}{
		"content":     encoded,
		"contentType": "plaintext",
	})
	return err
}

// Geolocation

// GetGeolocation returns the simulated device location.
func (c *Client) GetGeolocation() (core.Geolocation, error) {
	resp, err := c.get(c.sessionPath() + "/location")
	if err != nil {
		return core.Geolocation{}, err
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Geolocation{}, fmt.Errorf("invalid location response")
	}

	lat, _ := value["latitude"].(float64)
	lon, _ := value["longitude"].(float64)
	alt, _ := value["altitude"].(float64)
	return core.Geolocation{Latitude: lat, Longitude: lon, Altitude: alt}, nil
}

// SetGeolocation sets the simulated device location.
func (c *Client) SetGeolocation(loc core.Geolocation) error {
	_, err := c.post(c.sessionPath()+"/location", map[string]interface{}{
		"location": map[string]interface{}{
			"latitude":  loc.Latitude,
			"longitude": loc.Longitude,
			"altitude":  loc.Altitude,
		},
	})
	return err
}

// Logs

// Log returns structured device logs for a channel (logcat, syslog, ...).
func (c *Client) Log(channel string) ([]core.LogEntry, error) {
	resp, err := c.post(c.sessionPath()+"/se/log", map[string]interface{}{
		"type": channel,
	})
	if err != nil {
		// Fallback: legacy log endpoint
		resp, err = c.post(c.sessionPath()+"/log", map[string]interface{}{
			"type": channel,
		})
		if err != nil {
			return nil, err
		}
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var entries []core.LogEntry
	for _, v := range values {
		raw, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		entry := core.LogEntry{}
		if ts, ok := raw["timestamp"].(float64); ok {
			entry.Timestamp = time.UnixMilli(int64(ts))
		}
		entry.Level, _ = raw["level"].(string)
		entry.Message, _ = raw["message"].(string)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Settings & Script Execution

// SetSettings updates Appium driver settings.
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("nil response from server")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errMsg, ok := errValue["message"].(string); ok {
			if errType, ok := errValue["error"].(string); ok {
				return result, fmt.Errorf("%s: %s", errType, errMsg)
			}
		}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
