package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supportflow-dev/supportflow/internal/vpnflow"
)

func sampleSummary() *vpnflow.HandoffSummary {
	return &vpnflow.HandoffSummary{
		SessionID:         "sess-1",
		Symptom:           "no_connectivity",
		OS:                "windows",
		Client:            "AnyConnect",
		ErrorCode:         "619",
		Attempts:          1,
		StepsGiven:        []string{"Restart the VPN client"},
		TranscriptExcerpt: []string{"user: still failing"},
	}
}

func TestBuildPayload(t *testing.T) {
	opts := Options{
		ProjectKey:    "IT",
		IssueType:     "Incident",
		DefaultLabels: []string{"triage-bot"},
		LabelMap: map[string][]string{
			"vpn":       {"network", "vpn"},
			"error:619": {"dialup-codes"},
		},
	}

	p := BuildPayload(opts, sampleSummary())

	assert.Equal(t, "IT", p.ProjectKey)
	assert.Equal(t, "Incident", p.IssueType)
	assert.Equal(t, "VPN issue: no_connectivity (windows)", p.Summary)
	assert.Contains(t, p.Description, "session sess-1")
	assert.Contains(t, p.Description, "Restart the VPN client")
	assert.Contains(t, p.Description, "> user: still failing")
	assert.Equal(t, []string{"triage-bot", "network", "vpn", "dialup-codes"}, p.Labels)
}

func TestMapLabels_DedupePreservesOrder(t *testing.T) {
	opts := Options{
		DefaultLabels: []string{"a", "b", "a"},
		LabelMap: map[string][]string{
			"x": {"b", "c"},
		},
	}

	labels := MapLabels(opts, []string{"x", "unmapped", "X "})
	assert.Equal(t, []string{"a", "b", "c"}, labels)
}

func TestBuildPayload_MissingSlots(t *testing.T) {
	p := BuildPayload(Options{ProjectKey: "IT", IssueType: "Incident"}, &vpnflow.HandoffSummary{
		SessionID: "sess-2",
		Attempts:  1,
	})

	assert.Contains(t, p.Summary, "n/a")
	assert.Contains(t, p.Description, "Error code: n/a")
	assert.Empty(t, p.Labels)
}
