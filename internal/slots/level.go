package slots

import "strings"

var higherLevelPhrases = []string{
	"state level",
	"no district",
	"skip",
	"whole state",
}

// WantsHigherLevel reports whether the user asked to stay at the current
// administrative level instead of naming a finer unit.
func WantsHigherLevel(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range higherLevelPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
