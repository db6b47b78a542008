package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceClass is the coarse device bucket derived from a user agent.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// DirectReferrer stands in for a missing Referer header.
const DirectReferrer = "direct"

func (d DeviceClass) IsValid() bool {
	switch d {
	case DeviceMobile, DeviceTablet, DeviceDesktop:
		return true
	}
	return false
}

// VisitEvent is one successful resolution. Written once, never updated.
type VisitEvent struct {
	ID           uuid.UUID   `json:"id"`
	Code         string      `json:"code"`
	Timestamp    time.Time   `json:"timestamp"`
	Referrer     string      `json:"referrer"`
	Device       DeviceClass `json:"deviceClass"`
	VisitorToken string      `json:"visitorToken"`
}
