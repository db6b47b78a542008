package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastStatusCode() int
	GetLastHeader(name string) string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers server readiness, request and response assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the linkpulse server is running$`, steps.serverIsRunning)
	ctx.Step(`^I request "([^"]*)"$`, steps.request)
	ctx.Step(`^I visit "([^"]*)"$`, steps.request)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the Location header should be "([^"]*)"$`, steps.locationShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response should contain fields "([^"]*)"$`, steps.shouldContainFields)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serverIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, 200)
}

func (s *commonSteps) request(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastStatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d", expected, got)
	}
	return nil
}

func (s *commonSteps) locationShouldBe(ctx context.Context, expected string) error {
	if got := s.tc.GetLastHeader("Location"); got != expected {
		return fmt.Errorf("expected Location %q, got %q", expected, got)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, expected string) error {
	return s.fieldShouldBe(ctx, "error", expected)
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) shouldContainFields(ctx context.Context, fields string) error {
	for _, f := range strings.Split(fields, ",") {
		if _, err := s.tc.GetResponseField(strings.TrimSpace(f)); err != nil {
			return err
		}
	}
	return nil
}
