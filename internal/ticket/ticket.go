// Package ticket renders a handoff summary into a ticket payload preview
// for the external ticketing collaborator. It only builds data; opening
// the ticket is someone else's job.
package ticket

import (
	"fmt"
	"strings"

	"github.com/supportflow-dev/supportflow/internal/vpnflow"
)

// Options identify the ticketing destination for the preview.
type Options struct {
	ProjectKey string
	IssueType  string
	// DefaultLabels are always attached, before any mapped labels.
	DefaultLabels []string
	// LabelMap maps internal tags to ticket labels. Tags with no mapping
	// stay internal and are dropped from the payload.
	LabelMap map[string][]string
}

// Payload is the ticket preview emitted alongside a handoff.
type Payload struct {
	ProjectKey  string   `json:"project_key"`
	IssueType   string   `json:"issue_type"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
}

// internalTags derives routing tags from what the flow collected.
func internalTags(s *vpnflow.HandoffSummary) []string {
	tags := []string{"vpn"}
	if s.Symptom != "" {
		tags = append(tags, "symptom:"+s.Symptom)
	}
	if s.OS != "" {
		tags = append(tags, "os:"+s.OS)
	}
	if s.ErrorCode != "" && s.ErrorCode != "none" {
		tags = append(tags, "error:"+strings.ToLower(s.ErrorCode))
	}
	return tags
}

// MapLabels converts internal tags to destination labels: defaults first,
// then mapped labels, deduplicated while preserving order.
func MapLabels(opts Options, tags []string) []string {
	out := make([]string, 0, len(opts.DefaultLabels)+len(tags))
	seen := make(map[string]bool)
	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		out = append(out, label)
	}

	for _, l := range opts.DefaultLabels {
		add(l)
	}
	for _, tag := range tags {
		for _, l := range opts.LabelMap[strings.ToLower(strings.TrimSpace(tag))] {
			add(l)
		}
	}
	return out
}

// BuildPayload renders the handoff summary as a ticket preview.
func BuildPayload(opts Options, s *vpnflow.HandoffSummary) *Payload {
	na := func(v string) string {
		if v == "" {
			return "n/a"
		}
		return v
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Automated VPN triage escalation for session %s.\n\n", s.SessionID)
	fmt.Fprintf(&desc, "Symptom: %s\nOS: %s\nVPN client: %s\nError code: %s\nAttempts: %d\n",
		na(s.Symptom), na(s.OS), na(s.Client), na(s.ErrorCode), s.Attempts)
	if len(s.StepsGiven) > 0 {
		desc.WriteString("\nSteps already tried:\n")
		for _, step := range s.StepsGiven {
			fmt.Fprintf(&desc, "- %s\n", step)
		}
	}
	if len(s.TranscriptExcerpt) > 0 {
		desc.WriteString("\nRecent transcript:\n")
		for _, line := range s.TranscriptExcerpt {
			fmt.Fprintf(&desc, "> %s\n", line)
		}
	}

	return &Payload{
		ProjectKey:  opts.ProjectKey,
		IssueType:   opts.IssueType,
		Summary:     fmt.Sprintf("VPN issue: %s (%s)", na(s.Symptom), na(s.OS)),
		Description: desc.String(),
		Labels:      MapLabels(opts, internalTags(s)),
	}
}
