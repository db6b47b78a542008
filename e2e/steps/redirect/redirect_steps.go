package redirect

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	SetVisitor(ip, userAgent string)
	GetVisitor() (ip, userAgent string)
}

const defaultAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/126.0 Safari/537.36"

// RegisterSteps registers visitor identity and redirect step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &redirectSteps{tc: tc}

	ctx.Step(`^I visit "([^"]*)" as a fresh visitor using "([^"]*)"$`, steps.visitFreshWithAgent)
	ctx.Step(`^I visit "([^"]*)" as a fresh visitor from "([^"]*)"$`, steps.visitFreshFromReferrer)
	ctx.Step(`^I visit "([^"]*)" as the same visitor$`, steps.visitSame)
}

type redirectSteps struct {
	tc TestContext
}

// freshIP returns an address from TEST-NET-2 so repeated runs rarely reuse a visitor.
func freshIP() string {
	return fmt.Sprintf("198.51.%d.%d", rand.IntN(256), 1+rand.IntN(254))
}

func (s *redirectSteps) visitFreshWithAgent(ctx context.Context, path, userAgent string) error {
	s.tc.SetVisitor(freshIP(), userAgent)
	return s.visit(path, "")
}

func (s *redirectSteps) visitFreshFromReferrer(ctx context.Context, path, referrer string) error {
	s.tc.SetVisitor(freshIP(), defaultAgent)
	return s.visit(path, referrer)
}

func (s *redirectSteps) visitSame(ctx context.Context, path string) error {
	if ip, _ := s.tc.GetVisitor(); ip == "" {
		return fmt.Errorf("no visitor chosen yet")
	}
	return s.visit(path, "")
}

func (s *redirectSteps) visit(path, referrer string) error {
	ip, ua := s.tc.GetVisitor()
	headers := map[string]string{
		"X-Forwarded-For": ip,
		"User-Agent":      ua,
	}
	if referrer != "" {
		headers["Referer"] = referrer
	}
	return s.tc.GET(path, headers)
}
