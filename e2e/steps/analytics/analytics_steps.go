package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastStatusCode() int
	GetLastBody() []byte
	Remember(code string, snapshot map[string]any)
	Remembered(code string) (map[string]any, bool)
}

// RegisterSteps registers analytics snapshot and tag listing step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &analyticsSteps{tc: tc}

	ctx.Step(`^I remember the analytics for "([^"]*)"$`, steps.remember)
	ctx.Step(`^the analytics for "([^"]*)" should show (\d+) more visits? and (\d+) more unique visitors?$`, steps.shouldShowMoreVisits)
	ctx.Step(`^the analytics for "([^"]*)" should show (\d+) more "([^"]*)" visits?$`, steps.shouldShowMoreDevice)
	ctx.Step(`^the analytics for "([^"]*)" should show (\d+) more visits? from referrer "([^"]*)"$`, steps.shouldShowMoreReferrer)
	ctx.Step(`^the response should list short codes "([^"]*)"$`, steps.shouldListCodes)
}

type analyticsSteps struct {
	tc TestContext
}

func (s *analyticsSteps) snapshot(code string) (map[string]any, error) {
	if err := s.tc.GET("/analytics/"+code, nil); err != nil {
		return nil, err
	}
	if status := s.tc.GetLastStatusCode(); status != 200 {
		return nil, fmt.Errorf("analytics for %s: status %d", code, status)
	}
	var snap map[string]any
	if err := json.Unmarshal(s.tc.GetLastBody(), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *analyticsSteps) remember(ctx context.Context, code string) error {
	snap, err := s.snapshot(code)
	if err != nil {
		return err
	}
	s.tc.Remember(code, snap)
	return nil
}

// delta compares a numeric path in the current snapshot with the remembered one.
func (s *analyticsSteps) delta(code string, path ...string) (int, error) {
	before, ok := s.tc.Remembered(code)
	if !ok {
		return 0, fmt.Errorf("analytics for %s were not remembered", code)
	}
	after, err := s.snapshot(code)
	if err != nil {
		return 0, err
	}
	return number(after, path...) - number(before, path...), nil
}

func number(obj map[string]any, path ...string) int {
	var cur any = obj
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur = m[p]
	}
	f, _ := cur.(float64)
	return int(f)
}

func (s *analyticsSteps) shouldShowMoreVisits(ctx context.Context, code string, visits, unique int) error {
	before, ok := s.tc.Remembered(code)
	if !ok {
		return fmt.Errorf("analytics for %s were not remembered", code)
	}
	after, err := s.snapshot(code)
	if err != nil {
		return err
	}
	if got := number(after, "totalVisits") - number(before, "totalVisits"); got != visits {
		return fmt.Errorf("expected %d more visits, got %d", visits, got)
	}
	if got := number(after, "uniqueVisitors") - number(before, "uniqueVisitors"); got != unique {
		return fmt.Errorf("expected %d more unique visitors, got %d", unique, got)
	}
	return nil
}

func (s *analyticsSteps) shouldShowMoreDevice(ctx context.Context, code string, n int, device string) error {
	got, err := s.delta(code, "devices", device)
	if err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("expected %d more %s visits, got %d", n, device, got)
	}
	return nil
}

func (s *analyticsSteps) shouldShowMoreReferrer(ctx context.Context, code string, n int, referrer string) error {
	got, err := s.delta(code, "referrers", referrer)
	if err != nil {
		return err
	}
	if got != n {
		return fmt.Errorf("expected %d more visits from %s, got %d", n, referrer, got)
	}
	return nil
}

func (s *analyticsSteps) shouldListCodes(ctx context.Context, codes string) error {
	var entries []struct {
		ShortCode string `json:"shortCode"`
	}
	if err := json.Unmarshal(s.tc.GetLastBody(), &entries); err != nil {
		return fmt.Errorf("decode listing: %w", err)
	}
	if entries == nil {
		return fmt.Errorf("expected a JSON array, got %s", s.tc.GetLastBody())
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.ShortCode)
	}
	want := []string{}
	if codes != "" {
		want = strings.Split(codes, ",")
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("expected short codes %v, got %v", want, got)
	}
	return nil
}
