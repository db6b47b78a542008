package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TestContext holds the per-scenario HTTP state shared by the step packages.
type TestContext struct {
	BaseURL string

	client       *http.Client
	lastStatus   int
	lastHeader   http.Header
	lastBody     []byte
	visitorIP    string
	visitorAgent string
	remembered   map[string]map[string]any
}

// NewTestContext returns a context whose client never follows redirects.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		remembered: make(map[string]map[string]any),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastHeader = nil
	tc.lastBody = nil
	tc.visitorIP = ""
	tc.visitorAgent = ""
	tc.remembered = make(map[string]map[string]any)
}

// GET issues a request and records the response.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	tc.lastBody = body
	return nil
}

func (tc *TestContext) GetLastStatusCode() int { return tc.lastStatus }

func (tc *TestContext) GetLastHeader(name string) string { return tc.lastHeader.Get(name) }

func (tc *TestContext) GetLastBody() []byte { return tc.lastBody }

// GetResponseField decodes the last body as an object and returns one field.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) SetVisitor(ip, userAgent string) {
	tc.visitorIP = ip
	tc.visitorAgent = userAgent
}

func (tc *TestContext) GetVisitor() (ip, userAgent string) { return tc.visitorIP, tc.visitorAgent }

func (tc *TestContext) Remember(code string, snapshot map[string]any) { tc.remembered[code] = snapshot }

func (tc *TestContext) Remembered(code string) (map[string]any, bool) {
	s, ok := tc.remembered[code]
	return s, ok
}
