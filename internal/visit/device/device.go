// Package device buckets user agents and normalizes referrers for visit events.
package device

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"

	"linkpulse/internal/visit/models"
	pstrings "linkpulse/pkg/platform/strings"
)

var (
	tabletPattern = regexp.MustCompile(`(?i)tablet|ipad`)
	mobilePattern = regexp.MustCompile(`(?i)mobile|iphone|android`)
)

// Classify maps a user agent to mobile, tablet or desktop. Tablets are checked
// first so iPads and Android tablets are not counted as phones. Empty input is desktop.
func Classify(userAgent string) models.DeviceClass {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return models.DeviceDesktop
	}
	if isTablet(userAgent) {
		return models.DeviceTablet
	}
	if useragent.New(userAgent).Mobile() || mobilePattern.MatchString(userAgent) {
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

func isTablet(ua string) bool {
	if tabletPattern.MatchString(ua) {
		return true
	}
	lower := strings.ToLower(ua)
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}

// NormalizeReferrer trims the Referer header and substitutes "direct" when blank.
func NormalizeReferrer(referrer string) string {
	return pstrings.DefaultIfBlank(referrer, models.DirectReferrer)
}
