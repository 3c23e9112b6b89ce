package tracking

import "testing"

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		browser    string
		engine     string
		deviceType string
		os         string
	}{
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Chrome", "Blink", "Desktop", "Windows",
		},
		{
			"firefox on linux",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Firefox", "Gecko", "Desktop", "Linux",
		},
		{
			"safari on iphone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1",
			"Safari", "WebKit", "Mobile", "macOS",
		},
		{
			"android tablet keyword",
			"Mozilla/5.0 (Linux; Android 13; Tablet) Gecko/113.0 Firefox/113.0",
			"Firefox", "Gecko", "Mobile", "Linux",
		},
		{
			"ipad",
			"Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 Version/16.0 Safari/604.1",
			"Safari", "WebKit", "Tablet", "macOS",
		},
		{
			"unknown",
			"curl/8.4.0",
			"Unknown", "Unknown", "Desktop", "Unknown",
		},
		{
			"empty",
			"",
			"Unknown", "Unknown", "Desktop", "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser, device := ClassifyUserAgent(tt.ua)
			if browser.Name != tt.browser || browser.Engine != tt.engine {
				t.Errorf("browser = %s/%s, want %s/%s", browser.Name, browser.Engine, tt.browser, tt.engine)
			}
			if device.Type != tt.deviceType {
				t.Errorf("device type = %s, want %s", device.Type, tt.deviceType)
			}
			if device.OS != tt.os {
				t.Errorf("os = %s, want %s", device.OS, tt.os)
			}
		})
	}
}

func TestClassifyUserAgent_MobileFalsePositive(t *testing.T) {
	// A desktop UA containing the "mobile" substring is classified as
	// mobile. That imprecision is accepted.
	_, device := ClassifyUserAgent("SomeDesktopAgent mobile-ready windows")
	if !device.IsMobile {
		t.Error("substring match should win")
	}
}
