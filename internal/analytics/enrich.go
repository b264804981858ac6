package analytics

import "strings"

// EnrichUserAgent derives device type, browser, and OS from a raw
// userAgent string using lower-cased substring matching.
func EnrichUserAgent(userAgent string) (deviceType, browser, os string) {
	ua := strings.ToLower(userAgent)
	return deviceTypeOf(ua), browserOf(ua), osOf(ua)
}

func deviceTypeOf(ua string) string {
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "android"), strings.Contains(ua, "mobile"):
		return "Mobile"
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"):
		return "Tablet"
	default:
		return "Desktop"
	}
}

func browserOf(ua string) string {
	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return "Safari"
	case strings.Contains(ua, "edg"):
		return "Edge"
	case strings.Contains(ua, "opera"):
		return "Opera"
	case strings.Contains(ua, "opr"):
		return "Opera"
	case strings.Contains(ua, "msie"), strings.Contains(ua, "trident"):
		return "Internet Explorer"
	default:
		return "Unknown"
	}
}

func osOf(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "ios"), strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		return "iOS"
	case strings.Contains(ua, "mac"):
		return "macOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}
