// Package identity holds the values the resolver produces: the identifier
// record, device descriptors and tracking authorization state.
package identity

import (
	"fmt"
	"strings"
)

type Platform string

const (
	Android Platform = "android"
	IOS     Platform = "ios"
)

// ParsePlatform accepts the platform names used in config and descriptors,
// case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return Android, nil
	case "ios":
		return IOS, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// TrackingStatus mirrors the app tracking authorization states.
type TrackingStatus int

const (
	TrackingNotDetermined TrackingStatus = iota
	TrackingRestricted
	TrackingDenied
	TrackingAuthorized
)

func (s TrackingStatus) String() string {
	switch s {
	case TrackingNotDetermined:
		return "notDetermined"
	case TrackingRestricted:
		return "restricted"
	case TrackingDenied:
		return "denied"
	case TrackingAuthorized:
		return "authorized"
	default:
		return fmt.Sprintf("TrackingStatus(%d)", int(s))
	}
}

// ParseTrackingStatus is the inverse of String.
func ParseTrackingStatus(s string) (TrackingStatus, error) {
	switch s {
	case "notDetermined", "":
		return TrackingNotDetermined, nil
	case "restricted":
		return TrackingRestricted, nil
	case "denied":
		return TrackingDenied, nil
	case "authorized":
		return TrackingAuthorized, nil
	default:
		return TrackingNotDetermined, fmt.Errorf("unknown tracking status %q", s)
	}
}
