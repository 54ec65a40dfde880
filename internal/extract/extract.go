// Package extract pulls structured facts out of free-text utterances using
// keyword and pattern matching, hinted by the slots the active flow state
// is trying to fill. Extraction is pure and partial-tolerant: slots that
// cannot be found are simply absent from the result.
package extract

import (
	"regexp"
	"strings"
)

// Slot names a piece of structured information a flow gathers.
type Slot string

const (
	SlotOS        Slot = "operating_system"
	SlotClient    Slot = "vpn_client"
	SlotSymptom   Slot = "symptom"
	SlotErrorCode Slot = "error_code"
)

// Confidence indicates how a value was obtained.
type Confidence string

const (
	// Matched means an explicit keyword or pattern matched.
	Matched Confidence = "matched"
	// Inferred means the value was accepted from context, e.g. a bare
	// short reply to the question currently being asked.
	Inferred Confidence = "inferred"
)

// Value is a single extracted slot value.
type Value struct {
	Value      string
	Confidence Confidence
}

// Result maps slot names to extracted values for one utterance. It is
// ephemeral and never persisted directly.
type Result map[Slot]Value

// Get returns the extracted value for a slot, if any.
func (r Result) Get(s Slot) (Value, bool) {
	v, ok := r[s]
	return v, ok
}

// Operating system values.
const (
	OSWindows = "windows"
	OSMac     = "mac"
	OSLinux   = "linux"
	OSOther   = "other"
)

// Symptom category values.
const (
	SymptomDisconnect     = "disconnect"
	SymptomSlow           = "slow"
	SymptomAuthFailure    = "auth_failure"
	SymptomNoConnectivity = "no_connectivity"
	SymptomOther          = "other"
)

// ErrorCodeNone is the sentinel stored when the user states there is no
// error code, so the flow does not re-ask.
const ErrorCodeNone = "none"

// keywordRule maps any of a set of substrings to a normalized value.
// Rules are evaluated in order; the first hit wins.
type keywordRule struct {
	value    string
	keywords []string
}

var osRules = []keywordRule{
	{OSWindows, []string{"windows", "win11", "win 11", "win10", "win 10", "win7", "win 7"}},
	{OSMac, []string{"macos", "mac os", "osx", "os x", "macbook", "mac"}},
	{OSLinux, []string{"linux", "ubuntu", "debian", "fedora", "arch"}},
	{OSOther, []string{"android", "iphone", "ipad", "ios", "chromebook"}},
}

var clientRules = []keywordRule{
	{"AnyConnect", []string{"anyconnect", "any connect", "cisco secure client"}},
	{"GlobalProtect", []string{"globalprotect", "global protect", "palo alto"}},
	{"FortiClient", []string{"forticlient", "forti client", "forti"}},
	{"OpenVPN", []string{"openvpn", "open vpn"}},
	{"WireGuard", []string{"wireguard", "wire guard"}},
	{"Tunnelblick", []string{"tunnelblick"}},
}

// Symptom rules: more specific phrasings first, so "connects but no
// access" is not swallowed by the generic connect patterns.
var symptomRules = []keywordRule{
	{SymptomNoConnectivity, []string{
		"can't connect", "cannot connect", "cant connect", "won't connect",
		"wont connect", "fails to connect", "unable to connect",
		"no connection", "connects but", "connected but", "no access",
		"can't access internal", "cannot access internal", "not connecting",
	}},
	{SymptomAuthFailure, []string{
		"auth failed", "authentication", "login failed", "invalid credentials",
		"password rejected", "wrong password", "sign-in failed", "sign in failed",
		"credentials",
	}},
	{SymptomDisconnect, []string{
		"disconnect", "keeps dropping", "drops", "unstable", "cuts out",
		"keeps cutting",
	}},
	{SymptomSlow, []string{
		"slow", "sluggish", "laggy", "lagging", "takes forever", "crawling",
	}},
}

var errorKeywordRules = []keywordRule{
	{"CERTIFICATE", []string{"certificate", "cert "}},
	{"TIMEOUT", []string{"timeout", "timed out"}},
	{"AUTH_FAILED", []string{"auth failed", "authentication failed", "login failed", "invalid credentials"}},
}

var (
	// Numeric codes, optionally prefixed by "error"/"code" phrasing.
	numericCodeRe = regexp.MustCompile(`\b(?:error\s*code\s*[:\-]?\s*|error\s*[:\-]?\s*|code\s*[:\-]?\s*)?(\d{3,4})\b`)
	// Code-like tokens mixing letters and digits (e.g. "E-619", "VPN809"),
	// accepted only when the flow is asking for an error code.
	alnumCodeRe = regexp.MustCompile(`\b([A-Za-z]{1,4}[\-_]?\d{2,4})\b`)
	// Explicit "no error code" phrasings at the error-code question.
	noCodeRe = regexp.MustCompile(`^\s*(no|none|nope|no error|no code|nothing|n/a)\b`)
)

// Words that never form an inferred client name.
var clientStopwords = map[string]bool{
	"i": true, "dont": true, "don't": true, "know": true, "not": true,
	"sure": true, "no": true, "yes": true, "idea": true, "the": true,
	"a": true, "my": true, "vpn": true, "help": true, "what": true,
}

func matchKeywords(t string, rules []keywordRule) (string, bool) {
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(t, k) {
				return r.value, true
			}
		}
	}
	return "", false
}

// Extract runs all recognizers against the utterance. expected is the
// ordered list of slots the current flow state is trying to fill; its
// head enables context-aware interpretation of bare replies. current maps
// already-filled slot names; filled slots still extract (the flow decides
// whether a correction applies), they just never infer.
func Extract(utterance string, expected []Slot, current map[string]string) Result {
	t := strings.ToLower(strings.TrimSpace(utterance))
	res := make(Result, 4)
	if t == "" {
		return res
	}

	if v, ok := matchKeywords(t, osRules); ok {
		res[SlotOS] = Value{Value: v, Confidence: Matched}
	}
	if v, ok := matchKeywords(t, clientRules); ok {
		res[SlotClient] = Value{Value: v, Confidence: Matched}
	}
	if v, ok := matchKeywords(t, symptomRules); ok {
		res[SlotSymptom] = Value{Value: v, Confidence: Matched}
	}
	if v, ok := extractErrorCode(t); ok {
		res[SlotErrorCode] = Value{Value: v, Confidence: Matched}
	}

	inferFromContext(t, expected, current, res)
	return res
}

// extractErrorCode finds a numeric or keyword-style error code.
func extractErrorCode(t string) (string, bool) {
	if m := numericCodeRe.FindStringSubmatch(t); m != nil {
		return m[1], true
	}
	if v, ok := matchKeywords(t, errorKeywordRules); ok {
		return v, true
	}
	return "", false
}

// inferFromContext accepts bare short replies as answers to the slot
// currently being asked for, even without explicit slot-naming language.
func inferFromContext(t string, expected []Slot, current map[string]string, res Result) {
	if len(expected) == 0 {
		return
	}
	asking := expected[0]
	if _, filled := current[string(asking)]; filled {
		return
	}
	if _, already := res[asking]; already {
		return
	}

	switch asking {
	case SlotClient:
		// A short reply naming something we don't recognize is still the
		// user's best answer to "which client"; keep it verbatim.
		if name, ok := inferredClientName(t); ok {
			res[SlotClient] = Value{Value: name, Confidence: Inferred}
		}
	case SlotErrorCode:
		if noCodeRe.MatchString(t) {
			res[SlotErrorCode] = Value{Value: ErrorCodeNone, Confidence: Inferred}
			return
		}
		if m := alnumCodeRe.FindStringSubmatch(t); m != nil {
			res[SlotErrorCode] = Value{Value: strings.ToUpper(m[1]), Confidence: Inferred}
		}
	}
}

func inferredClientName(t string) (string, bool) {
	words := strings.Fields(t)
	if len(words) == 0 || len(words) > 3 {
		return "", false
	}
	for _, w := range words {
		w = strings.Trim(w, ".,!?")
		if clientStopwords[w] || strings.ContainsAny(w, "0123456789") {
			return "", false
		}
	}
	name := strings.Trim(strings.Join(words, " "), ".,!?")
	if len(name) < 2 {
		return "", false
	}
	return titleCase(name), true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
