package vpnflow

import "strings"

// Resolution lexicon for CHECK_RESULT. These are deliberately small,
// deterministic phrase lists; the affirmative list is checked first so
// "no more errors, works now" counts as resolved.

var resolvedPhrases = []string{
	"works now", "working now", "it works", "it's working", "its working",
	"fixed", "resolved", "connected now", "success", "all good",
	"problem solved", "sorted",
}

var unresolvedPhrases = []string{
	"still", "not working", "doesn't work", "doesnt work", "doesn't connect",
	"doesnt connect", "failed", "failing", "same error", "no luck",
	"didn't help", "didnt help", "nope", "broken", "no change", "not fixed",
}

func looksResolved(msg string) bool {
	return containsAny(msg, resolvedPhrases)
}

func looksUnresolved(msg string) bool {
	t := strings.ToLower(msg)
	if containsAny(t, unresolvedPhrases) {
		return true
	}
	// A bare "no" is an answer to "did the steps work?".
	return t == "no" || strings.HasPrefix(t, "no,") || strings.HasPrefix(t, "no ")
}

func containsAny(msg string, phrases []string) bool {
	t := strings.ToLower(msg)
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
