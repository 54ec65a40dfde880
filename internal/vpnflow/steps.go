package vpnflow

import (
	"github.com/supportflow-dev/supportflow/internal/extract"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

// Troubleshooting scripts. Selection is deterministic: a known error code
// wins over the symptom category, and the retry after a failed attempt
// gets a deeper alternate script instead of repeating the first one.

type script struct {
	primary []string
	retry   []string
}

var codeScripts = map[string]script{
	"619": dialupScript, "809": dialupScript, "812": dialupScript,
	"CERTIFICATE": {
		primary: []string{
			"Restart the VPN client",
			"Accept the certificate prompt if one appears",
			"Check the system date and time are correct",
		},
		retry: []string{
			"Remove and re-import the VPN profile",
			"If the certificate is expired or missing, IT needs to re-issue it — note that for the ticket",
		},
	},
	"AUTH_FAILED": {
		primary: []string{
			"Re-type username and password (check Caps Lock)",
			"If you use SSO, sign out and back in via the browser, then retry",
			"If the password was changed recently, wait a few minutes and retry",
		},
		retry: []string{
			"Confirm the account is not locked by trying another company login",
			"Reboot and retry once with the corporate network profile",
		},
	},
	"TIMEOUT": {
		primary: []string{
			"Try a different network (mobile hotspot) to avoid blocked VPN ports",
			"Restart the VPN client",
		},
		retry: []string{
			"Disable any local firewall temporarily and retry",
			"Reboot the machine and try again",
		},
	},
}

var dialupScript = script{
	primary: []string{
		"Check internet connectivity (open a normal website)",
		"Verify the system time and date are correct",
		"Try a different network (mobile hotspot) to rule out firewall or router blocks",
		"Restart the VPN client",
	},
	retry: []string{
		"Reboot the machine and try again",
		"Delete and re-add the VPN connection profile",
	},
}

var symptomScripts = map[string]script{
	extract.SymptomNoConnectivity: {
		primary: []string{
			"Check internet connectivity without the VPN",
			"Restart the VPN client",
			"Try a different network (mobile hotspot)",
		},
		retry: []string{
			"Reboot the machine",
			"Re-import the VPN profile or reinstall the client",
		},
	},
	extract.SymptomAuthFailure: {
		primary: []string{
			"Re-type username and password (check Caps Lock)",
			"If you use SSO, sign out and back in via the browser, then retry",
		},
		retry: []string{
			"Wait a few minutes in case the account is temporarily locked, then retry",
			"Reboot and try again from a fresh login",
		},
	},
	extract.SymptomDisconnect: {
		primary: []string{
			"Switch from Wi-Fi to a wired connection if possible",
			"Restart the VPN client",
			"Disable power-saving on the network adapter",
		},
		retry: []string{
			"Try a different network (mobile hotspot)",
			"Update or reinstall the VPN client",
		},
	},
	extract.SymptomSlow: {
		primary: []string{
			"Disconnect and reconnect to get a fresh gateway",
			"Close bandwidth-heavy apps (video calls, sync clients) and retest",
			"Run a speed test with the VPN off to compare",
		},
		retry: []string{
			"Try a different network (mobile hotspot)",
			"Reboot the machine and reconnect",
		},
	},
}

var defaultScript = script{
	primary: []string{
		"Restart the VPN client",
		"Reboot the machine",
		"Try a different network (mobile hotspot)",
	},
	retry: []string{
		"Reinstall the VPN client",
		"Try connecting from another device to isolate the problem",
	},
}

// stepsFor picks the script for the collected slots. The attempt count
// selects primary vs. retry tier.
func stepsFor(fc *session.FlowContext) []string {
	code, _ := fc.Slot(string(extract.SlotErrorCode))
	symptom, _ := fc.Slot(string(extract.SlotSymptom))

	sc := defaultScript
	if s, ok := codeScripts[code]; ok {
		sc = s
	} else if s, ok := symptomScripts[symptom]; ok {
		sc = s
	}

	if fc.AttemptCount > 0 {
		return sc.retry
	}
	return sc.primary
}
