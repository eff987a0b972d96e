package intake

import (
	"fmt"
	"strings"
)

// Slugify lowercases title and replaces every rune outside [a-z0-9] with "-".
//
// Runs of punctuation are not collapsed: "My Song!" becomes "my-song-".
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// StorageName builds the stored filename for title at stamp.
func StorageName(title string, stamp int64) string {
	return fmt.Sprintf("%s-%d%s", Slugify(title), stamp, mp3Ext)
}
