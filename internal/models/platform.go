package models

import (
	"fmt"
	"strings"
)

// Platform identifies a social network a clip can be posted to.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
)

var platformAliases = map[string]Platform{
	"tiktok":    PlatformTikTok,
	"instagram": PlatformInstagram,
	"youtube":   PlatformYouTube,
	"facebook":  PlatformFacebook,
	"x":         PlatformX,
	"twitter":   PlatformX,
	"linkedin":  PlatformLinkedIn,
}

// ParsePlatform normalizes s and returns the matching platform.
func ParsePlatform(s string) (Platform, error) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// ParsePlatforms parses and de-duplicates a platform list, keeping first-seen order.
func ParsePlatforms(in []string) ([]Platform, error) {
	out := make([]Platform, 0, len(in))
	seen := make(map[Platform]struct{}, len(in))
	for _, s := range in {
		p, err := ParsePlatform(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// PlatformStrings converts platforms to plain strings (e.g. for a TEXT[] column).
func PlatformStrings(ps []Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
