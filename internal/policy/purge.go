package policy

import (
	"regexp"
	"strings"
)

var (
	hashTagRe   = regexp.MustCompile(`(^#\S+)|(\s#\S+)`)
	blankLineRe = regexp.MustCompile(`^\s*$`)
)

// PurgeOrigin strips origin-channel attribution from a rendered submission:
// the "via <channel>" line, hashtags, and the blank lines left behind.
// Applied before a PurgeOrigin-flagged submission reaches the review group.
func PurgeOrigin(text, channelTitle string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if channelTitle != "" && strings.Contains(line, channelTitle) {
			continue
		}
		line = hashTagRe.ReplaceAllString(line, "")
		if blankLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.Join(kept, "\n")
}
