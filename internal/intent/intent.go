// Package intent classifies the coarse topic of a fresh utterance. The
// classifier is an ordered, prioritized rule table evaluated
// deterministically: the first matching rule wins, and a miss is the
// ordinary Unknown value, never an error.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the coarse topic of an utterance.
type Intent string

const (
	VPN           Intent = "VPN"
	Email         Intent = "EMAIL"
	PasswordReset Intent = "PASSWORD_RESET"
	General       Intent = "GENERAL"
	Unknown       Intent = "UNKNOWN"
)

// Rule is one entry in the classification table. Rules are evaluated in
// slice order; earlier rules carry more specific domain terms and outrank
// generic ones.
type Rule struct {
	Name       string
	Pattern    *regexp.Regexp
	Intent     Intent
	Confidence float64
}

// Rules is the prioritized classification table. It is exported so the
// entries can be unit-tested independently of the engine.
var Rules = []Rule{
	{
		Name:       "vpn-explicit",
		Pattern:    regexp.MustCompile(`\bvpn\b|anyconnect|globalprotect|forticlient|openvpn|wireguard`),
		Intent:     VPN,
		Confidence: 0.80,
	},
	{
		Name:       "password-reset",
		Pattern:    regexp.MustCompile(`password|reset|forgot|locked out`),
		Intent:     PasswordReset,
		Confidence: 0.80,
	},
	{
		Name:       "email-issue",
		Pattern:    regexp.MustCompile(`\bemail\b|outlook|gmail|can'?t send|cant send|can'?t receive|cant receive`),
		Intent:     Email,
		Confidence: 0.75,
	},
}

// Vague follow-up language ("still not working", "error 619") that, with
// a previous intent on record, means the user is continuing that topic.
var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bstill\b`),
	regexp.MustCompile(`\bnot working\b`),
	regexp.MustCompile(`\bdoesn'?t work\b`),
	regexp.MustCompile(`\bfails?\b`),
	regexp.MustCompile(`\berror\b`),
	regexp.MustCompile(`\bissue\b`),
	regexp.MustCompile(`\bproblem\b`),
	regexp.MustCompile(`\berror[: ]*\d+\b`),
}

const (
	followupConfidence = 0.62
	generalConfidence  = 0.55
	unknownConfidence  = 0.40

	// Inputs shorter than this with no rule match are too thin to call
	// General; they come back Unknown so the caller asks to rephrase.
	minGeneralLen = 8
)

// Classify determines the intent of an utterance. prev is the most
// recently classified intent for the session ("" when none); it is only
// consulted for vague follow-ups. Classify is a pure function and never
// mutates session state.
func Classify(utterance string, prev Intent) (Intent, float64) {
	text := strings.ToLower(strings.TrimSpace(utterance))

	for _, r := range Rules {
		if r.Pattern.MatchString(text) {
			return r.Intent, r.Confidence
		}
	}

	if prev != "" && prev != Unknown && isVagueFollowup(text) {
		return prev, followupConfidence
	}

	if len(text) < minGeneralLen {
		return Unknown, unknownConfidence
	}

	return General, generalConfidence
}

func isVagueFollowup(text string) bool {
	for _, p := range vaguePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
