package e2e

import (
	"github.com/cucumber/godog"

	"linkpulse/e2e/steps/analytics"
	"linkpulse/e2e/steps/common"
	"linkpulse/e2e/steps/redirect"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (server readiness, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register redirect-specific steps
	redirect.RegisterSteps(ctx, tc)

	// Register analytics-specific steps
	analytics.RegisterSteps(ctx, tc)
}
