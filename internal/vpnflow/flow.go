// Package vpnflow implements the VPN troubleshooting flow: a finite state
// machine that gathers slots from user replies, presents troubleshooting
// scripts, permits exactly one retry, and escalates with a structured
// handoff summary when automated remediation is exhausted.
package vpnflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/supportflow-dev/supportflow/internal/extract"
	"github.com/supportflow-dev/supportflow/pkg/session"
)

// State is a node in the troubleshooting state machine.
type State string

const (
	StateStart        State = "START"
	StateAskOS        State = "ASK_OS"
	StateAskClient    State = "ASK_CLIENT"
	StateAskSymptom   State = "ASK_SYMPTOM"
	StateAskErrorCode State = "ASK_ERROR_CODE"
	StateGiveSteps    State = "GIVE_STEPS"
	StateCheckResult  State = "CHECK_RESULT"
	// StateResolved is terminal; the engine clears the flow context when
	// it is reached, so Advance never observes it.
	StateResolved State = "RESOLVED"
	// StateHandoff is terminal and sticky: further messages receive a
	// fixed escalation notice and the state does not change.
	StateHandoff State = "HANDOFF"
)

// HandoffSummary is the structured record handed to the external
// ticketing collaborator. The engine fills SessionID and the transcript
// excerpt; the flow fills everything it collected.
type HandoffSummary struct {
	SessionID         string   `json:"session_id"`
	Symptom           string   `json:"symptom"`
	OS                string   `json:"os"`
	Client            string   `json:"vpn_client"`
	ErrorCode         string   `json:"error_code"`
	Attempts          int      `json:"attempts"`
	StepsGiven        []string `json:"steps_given"`
	TranscriptExcerpt []string `json:"transcript_excerpt,omitempty"`
}

// Outcome is the result of advancing the flow by one user message.
type Outcome struct {
	Reply string
	// Handoff signals terminal escalation; Summary is set alongside it.
	Handoff bool
	Summary *HandoffSummary
	// Resolved signals the success terminal; the caller clears the flow.
	Resolved bool
	// StateReset reports that the persisted state was unknown (schema
	// drift) and the flow restarted from the beginning. The caller logs
	// the anomaly; the turn still proceeds.
	StateReset bool
}

const (
	alreadyEscalatedReply = "This issue has already been escalated to IT support. " +
		"A technician will follow up; if you hit a new problem, start a new session."
	resolvedReply = "Glad it's working now. If it happens again, tell me the OS, " +
		"client, and error code and we'll get through it quickly."
	checkResultClarification = "Did the steps work?\n" +
		"Reply with 'works now' or 'still failing', and include any error message you see."
)

var knownStates = map[State]bool{
	StateStart: true, StateAskOS: true, StateAskClient: true,
	StateAskSymptom: true, StateAskErrorCode: true, StateGiveSteps: true,
	StateCheckResult: true, StateResolved: true, StateHandoff: true,
}

// askedSlot maps a gathering state to the slot it is trying to fill.
var askedSlot = map[State]extract.Slot{
	StateAskOS:        extract.SlotOS,
	StateAskClient:    extract.SlotClient,
	StateAskSymptom:   extract.SlotSymptom,
	StateAskErrorCode: extract.SlotErrorCode,
}

// NewContext returns a flow context positioned at the start state.
func NewContext() *session.FlowContext {
	return &session.FlowContext{State: string(StateStart)}
}

// Advance runs one transition of the state machine for an incoming user
// message, mutating fc in place. The caller persists fc afterwards.
func Advance(fc *session.FlowContext, msg string) Outcome {
	msg = strings.TrimSpace(msg)

	state := State(fc.State)
	var reset bool
	if !knownStates[state] || state == StateResolved {
		// Schema drift or an impossible resume point: restart the flow
		// rather than failing the session. Collected slots are kept.
		state = StateStart
		fc.State = string(state)
		fc.AttemptCount = 0
		reset = true
	}

	if state == StateHandoff {
		return Outcome{
			Reply:   alreadyEscalatedReply,
			Handoff: true,
			Summary: Summarize(fc),
		}
	}

	// Best-effort extraction from any message, hinted by the slot the
	// current state is asking for.
	var expected []extract.Slot
	if s, ok := askedSlot[state]; ok {
		expected = []extract.Slot{s}
	}
	res := extract.Extract(msg, expected, fc.Slots)
	mergeSlots(fc, res, msg, state)

	if state == StateCheckResult {
		out := checkResult(fc, msg)
		out.StateReset = reset
		return out
	}

	out := gather(fc, state)
	out.StateReset = reset
	return out
}

// mergeSlots folds an extraction result into the context. Filled slots
// are never silently overwritten: a new value only replaces an old one
// when the match is explicit and the message carries a correction cue,
// or, for the error code, when the user reports a fresh code after a
// failed attempt.
func mergeSlots(fc *session.FlowContext, res extract.Result, msg string, state State) {
	correction := hasCorrectionCue(msg)
	for slot, v := range res {
		cur, filled := fc.Slot(string(slot))
		switch {
		case !filled:
			fc.SetSlot(string(slot), v.Value)
		case v.Value == cur:
			// Restating the same value is not a correction.
		case correction && v.Confidence == extract.Matched:
			fc.SetSlot(string(slot), v.Value)
		case slot == extract.SlotErrorCode && state == StateCheckResult && v.Confidence == extract.Matched:
			// A new code surfaced while checking results refines the
			// next step selection.
			fc.SetSlot(string(slot), v.Value)
		}
	}
}

var correctionCues = []string{
	"actually", "i meant", "my mistake", "correction", "scratch that", "sorry,",
}

func hasCorrectionCue(msg string) bool {
	t := strings.ToLower(msg)
	for _, cue := range correctionCues {
		if strings.Contains(t, cue) {
			return true
		}
	}
	return false
}

// gather walks the ask-states in order, skipping every slot that is
// already filled, until it finds a question to ask or reaches GIVE_STEPS.
// entered is the state the turn started in: being asked the same question
// twice gets a clarification preamble instead of a plain repeat.
func gather(fc *session.FlowContext, entered State) Outcome {
	state := entered
	if state == StateStart {
		state = StateAskOS
	}

	for {
		switch state {
		case StateAskOS, StateAskClient, StateAskSymptom:
			slot := askedSlot[state]
			if _, ok := fc.Slot(string(slot)); !ok {
				fc.State = string(state)
				return Outcome{Reply: question(state, entered == state)}
			}
			state = nextAskState(state)

		case StateAskErrorCode:
			if !symptomCarriesErrorCode(fc) {
				state = StateGiveSteps
				continue
			}
			if _, ok := fc.Slot(string(extract.SlotErrorCode)); !ok {
				fc.State = string(state)
				return Outcome{Reply: question(state, entered == state)}
			}
			state = StateGiveSteps

		case StateGiveSteps:
			return giveSteps(fc)

		default:
			// Unreachable given the callers; restart defensively.
			state = StateAskOS
		}
	}
}

func nextAskState(s State) State {
	switch s {
	case StateAskOS:
		return StateAskClient
	case StateAskClient:
		return StateAskSymptom
	case StateAskSymptom:
		return StateAskErrorCode
	default:
		return StateGiveSteps
	}
}

// symptomCarriesErrorCode reports whether the collected symptom typically
// comes with an error code worth asking for. Slowness and instability
// rarely do; connection and auth failures usually surface one.
func symptomCarriesErrorCode(fc *session.FlowContext) bool {
	symptom, ok := fc.Slot(string(extract.SlotSymptom))
	if !ok {
		return true
	}
	switch symptom {
	case extract.SymptomNoConnectivity, extract.SymptomAuthFailure:
		return true
	default:
		return false
	}
}

var questions = map[State]string{
	StateAskOS:      "Which operating system are you on (Windows / Mac / Linux)?",
	StateAskClient:  "Which VPN client are you using? (AnyConnect, GlobalProtect, FortiClient, ...)",
	StateAskSymptom: "What happens when you try to connect?\n- Can't connect at all\n- Connects but no internal access\n- Disconnects / unstable\n- Just very slow",
	StateAskErrorCode: "Do you see an error code or message?\n" +
		"(e.g. 619 / 809 / certificate / auth failed — reply 'none' if there isn't one)",
}

func question(s State, repeat bool) string {
	q := questions[s]
	if repeat {
		return "Sorry, I didn't catch that. " + q
	}
	return q
}

// giveSteps selects the troubleshooting script for the collected slots
// and moves to CHECK_RESULT. AttemptCount selects the primary script on
// the first pass and the deeper alternate on the retry.
func giveSteps(fc *session.FlowContext) Outcome {
	steps := stepsFor(fc)
	fc.StepsGiven = steps
	fc.State = string(StateCheckResult)

	var b strings.Builder
	b.WriteString("Thanks. Try these steps:\n")
	for i, s := range steps {
		fmt.Fprintf(&b, "%d) %s\n", i+1, s)
	}
	b.WriteString("\nAfter trying them, reply with what happened (works now / still failing + any new error).")

	return Outcome{Reply: b.String()}
}

// checkResult classifies the user's reply after a step list using the
// resolution lexicon: resolved ends the flow, one retry is permitted,
// and a second failure escalates.
func checkResult(fc *session.FlowContext, msg string) Outcome {
	switch {
	case looksResolved(msg):
		fc.State = string(StateResolved)
		return Outcome{Reply: resolvedReply, Resolved: true}

	case looksUnresolved(msg):
		if fc.AttemptCount >= 1 {
			now := time.Now().UTC()
			fc.State = string(StateHandoff)
			fc.HandedOffAt = &now
			return Outcome{
				Reply:   handoffReply(fc),
				Handoff: true,
				Summary: Summarize(fc),
			}
		}
		fc.AttemptCount++
		fc.State = string(StateGiveSteps)
		return giveSteps(fc)

	default:
		// Neither resolved nor failed: ask again without consuming the retry.
		return Outcome{Reply: checkResultClarification}
	}
}

// Summarize builds the handoff record from whatever the flow collected.
func Summarize(fc *session.FlowContext) *HandoffSummary {
	get := func(s extract.Slot) string {
		v, _ := fc.Slot(string(s))
		return v
	}
	return &HandoffSummary{
		Symptom:    get(extract.SlotSymptom),
		OS:         get(extract.SlotOS),
		Client:     get(extract.SlotClient),
		ErrorCode:  get(extract.SlotErrorCode),
		Attempts:   fc.AttemptCount,
		StepsGiven: fc.StepsGiven,
	}
}

func handoffReply(fc *session.FlowContext) string {
	s := Summarize(fc)
	display := func(v string) string {
		if v == "" {
			return "n/a"
		}
		return v
	}
	return fmt.Sprintf(
		"I'm escalating this to IT support. Here's what I collected for the handoff:\n"+
			"- OS: %s\n- VPN client: %s\n- Symptom: %s\n- Error: %s\n- Attempts: %d\n- Steps tried: %s\n\n"+
			"This case is now with IT. Start a new session if you need to troubleshoot something else.",
		display(s.OS), display(s.Client), display(s.Symptom), display(s.ErrorCode),
		s.Attempts+1, display(strings.Join(s.StepsGiven, ", ")),
	)
}
