package util

import "strings"

// Platform labels used in responses and transcript headers.
const (
	PlatformYouTube   = "YouTube"
	PlatformInstagram = "Instagram"
	PlatformVK        = "VK"
	PlatformRutube    = "Rutube"
	PlatformTikTok    = "TikTok"
	PlatformVideo     = "Video"
	PlatformLocalFile = "LocalFile"
)

// platformRules is checked in order; the first matching substring wins.
var platformRules = []struct {
	needles  []string
	platform string
}{
	{[]string{"youtube.com", "youtu.be"}, PlatformYouTube},
	{[]string{"instagram.com"}, PlatformInstagram},
	{[]string{"vk.com", "vkvideo"}, PlatformVK},
	{[]string{"rutube.ru"}, PlatformRutube},
	{[]string{"tiktok.com"}, PlatformTikTok},
}

// DetectPlatform classifies a URL by case-insensitive substring match.
// Unrecognized URLs are labelled "Video".
func DetectPlatform(url string) string {
	lower := strings.ToLower(url)
	for _, rule := range platformRules {
		for _, n := range rule.needles {
			if strings.Contains(lower, n) {
				return rule.platform
			}
		}
	}
	return PlatformVideo
}
