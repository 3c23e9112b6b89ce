package tracking

import "strings"

// BrowserInfo is a best-effort classification of the client browser.
type BrowserInfo struct {
	Name   string `json:"name"`
	Engine string `json:"engine"`
}

// DeviceInfo is a best-effort classification of the client device.
type DeviceInfo struct {
	Type     string `json:"type"`
	OS       string `json:"os"`
	IsMobile bool   `json:"is_mobile"`
	IsTablet bool   `json:"is_tablet"`
}

// ClassifyUserAgent derives browser and device info from a user-agent
// string by substring matching. It is deliberately crude, not a full
// UA parser; collisions such as a desktop UA containing "mobile" are
// accepted false positives.
func ClassifyUserAgent(userAgent string) (BrowserInfo, DeviceInfo) {
	browser := BrowserInfo{Name: "Unknown", Engine: "Unknown"}
	device := DeviceInfo{Type: "Desktop", OS: "Unknown"}
	if userAgent == "" {
		return browser, device
	}
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "chrome"):
		browser = BrowserInfo{Name: "Chrome", Engine: "Blink"}
	case strings.Contains(ua, "firefox"):
		browser = BrowserInfo{Name: "Firefox", Engine: "Gecko"}
	case strings.Contains(ua, "safari"):
		browser = BrowserInfo{Name: "Safari", Engine: "WebKit"}
	case strings.Contains(ua, "edge"):
		browser = BrowserInfo{Name: "Edge", Engine: "Blink"}
	}

	switch {
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"), strings.Contains(ua, "iphone"):
		device.Type = "Mobile"
		device.IsMobile = true
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		device.Type = "Tablet"
		device.IsTablet = true
	}

	switch {
	case strings.Contains(ua, "windows"):
		device.OS = "Windows"
	case strings.Contains(ua, "mac"):
		device.OS = "macOS"
	case strings.Contains(ua, "linux"):
		device.OS = "Linux"
	case strings.Contains(ua, "android"):
		device.OS = "Android"
	case strings.Contains(ua, "ios"):
		device.OS = "iOS"
	}

	return browser, device
}
