package analytics

import "testing"

func TestEnrichUserAgent(t *testing.T) {
	cases := []struct {
		ua       string
		device   string
		browser  string
		os       string
	}{
		{
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			device:  "Mobile",
			browser: "Safari",
			os:      "iOS",
		},
		{
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			device:  "Desktop",
			browser: "Chrome",
			os:      "Windows",
		},
		{
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0",
			device:  "Desktop",
			browser: "Firefox",
			os:      "Linux",
		},
		{
			ua:      "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Mobile Safari/537.36",
			device:  "Mobile",
			browser: "Safari",
			os:      "Android",
		},
		{
			ua:      "",
			device:  "Desktop",
			browser: "Unknown",
			os:      "Unknown",
		},
	}

	for _, tc := range cases {
		device, browser, os := EnrichUserAgent(tc.ua)
		if device != tc.device || browser != tc.browser || os != tc.os {
			t.Errorf("EnrichUserAgent(%q) = (%s, %s, %s), want (%s, %s, %s)",
				tc.ua, device, browser, os, tc.device, tc.browser, tc.os)
		}
	}
}
