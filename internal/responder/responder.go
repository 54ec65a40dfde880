// Package responder produces the templated replies for intents that have
// no dedicated flow. One static reply per intent, nothing generative.
package responder

import "github.com/supportflow-dev/supportflow/internal/intent"

var replies = map[intent.Intent]string{
	intent.PasswordReset: "Password reset help:\n" +
		"1) Use the 'Forgot password' option on the sign-in page.\n" +
		"2) Tell me which system you're trying to access.\n" +
		"3) Share any specific error message you see.",
	intent.Email: "Email issue troubleshooting:\n" +
		"- Are you unable to send, receive, or both?\n" +
		"- Which client are you using (Outlook, Gmail, web)?\n" +
		"- What error message do you see?",
	intent.General: "Please describe:\n" +
		"- which system\n" +
		"- what exactly happened\n" +
		"- any error message\n" +
		"and I'll guide you from there.",
}

const fallback = "I'm not sure I understood. Please rephrase your issue in one sentence."

// Respond returns the static reply for a non-VPN intent. Unknown intents
// get the generic rephrase prompt.
func Respond(it intent.Intent) string {
	if r, ok := replies[it]; ok {
		return r
	}
	return fallback
}
