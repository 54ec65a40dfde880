package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_NoMatchReturnsEmpty(t *testing.T) {
	for _, msg := range []string{
		"",
		"   ",
		"hello there",
		"the weather is nice today",
	} {
		res := Extract(msg, nil, nil)
		assert.Empty(t, res, "utterance %q", msg)
	}
}

func TestExtract_OperatingSystem(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"I'm on Windows", OSWindows},
		{"win11 laptop", OSWindows},
		{"it's a MacBook Pro", OSMac},
		{"macos sonoma", OSMac},
		{"ubuntu 22.04", OSLinux},
		{"my iphone", OSOther},
	}
	for _, tt := range tests {
		res := Extract(tt.msg, nil, nil)
		v, ok := res.Get(SlotOS)
		assert.True(t, ok, "msg %q", tt.msg)
		assert.Equal(t, tt.want, v.Value, "msg %q", tt.msg)
		assert.Equal(t, Matched, v.Confidence)
	}
}

func TestExtract_Client(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"using cisco anyconnect", "AnyConnect"},
		{"Global Protect", "GlobalProtect"},
		{"forticlient vpn", "FortiClient"},
		{"openvpn on linux", "OpenVPN"},
		{"wireguard", "WireGuard"},
	}
	for _, tt := range tests {
		v, ok := Extract(tt.msg, nil, nil).Get(SlotClient)
		assert.True(t, ok, "msg %q", tt.msg)
		assert.Equal(t, tt.want, v.Value, "msg %q", tt.msg)
	}
}

func TestExtract_Symptom(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"I can't connect at all", SymptomNoConnectivity},
		{"it connects but no access to internal sites", SymptomNoConnectivity},
		{"vpn keeps dropping every few minutes", SymptomDisconnect},
		{"everything is super slow over vpn", SymptomSlow},
		{"authentication failed when I log in", SymptomAuthFailure},
	}
	for _, tt := range tests {
		v, ok := Extract(tt.msg, nil, nil).Get(SlotSymptom)
		assert.True(t, ok, "msg %q", tt.msg)
		assert.Equal(t, tt.want, v.Value, "msg %q", tt.msg)
	}
}

func TestExtract_ErrorCode(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"619", "619"},
		{"error 809", "809"},
		{"error code: 812", "812"},
		{"it says certificate expired", "CERTIFICATE"},
		{"connection timed out", "TIMEOUT"},
		{"auth failed again", "AUTH_FAILED"},
	}
	for _, tt := range tests {
		v, ok := Extract(tt.msg, nil, nil).Get(SlotErrorCode)
		assert.True(t, ok, "msg %q", tt.msg)
		assert.Equal(t, tt.want, v.Value, "msg %q", tt.msg)
	}
}

func TestExtract_MultipleSlotsFromOneUtterance(t *testing.T) {
	res := Extract("AnyConnect on Windows can't connect, error 619", nil, nil)

	v, _ := res.Get(SlotOS)
	assert.Equal(t, OSWindows, v.Value)
	v, _ = res.Get(SlotClient)
	assert.Equal(t, "AnyConnect", v.Value)
	v, _ = res.Get(SlotSymptom)
	assert.Equal(t, SymptomNoConnectivity, v.Value)
	v, _ = res.Get(SlotErrorCode)
	assert.Equal(t, "619", v.Value)
}

func TestExtract_BareReplyAnswersExpectedSlot(t *testing.T) {
	// "Windows" answers ASK_OS even without slot-naming language.
	v, ok := Extract("Windows", []Slot{SlotOS}, nil).Get(SlotOS)
	assert.True(t, ok)
	assert.Equal(t, OSWindows, v.Value)
	assert.Equal(t, Matched, v.Confidence)
}

func TestExtract_InferredClientName(t *testing.T) {
	res := Extract("pulse secure", []Slot{SlotClient}, nil)
	v, ok := res.Get(SlotClient)
	assert.True(t, ok)
	assert.Equal(t, "Pulse Secure", v.Value)
	assert.Equal(t, Inferred, v.Confidence)

	// Non-answers are not mistaken for client names.
	for _, msg := range []string{"i don't know", "no idea", "what do you mean by that exactly"} {
		_, ok := Extract(msg, []Slot{SlotClient}, nil).Get(SlotClient)
		assert.False(t, ok, "msg %q", msg)
	}

	// No inference when the slot is already filled.
	_, ok = Extract("pulse secure", []Slot{SlotClient}, map[string]string{string(SlotClient): "AnyConnect"}).Get(SlotClient)
	assert.False(t, ok)
}

func TestExtract_ErrorCodeContextHints(t *testing.T) {
	v, ok := Extract("vpn809", []Slot{SlotErrorCode}, nil).Get(SlotErrorCode)
	assert.True(t, ok)
	assert.Equal(t, "VPN809", v.Value)
	assert.Equal(t, Inferred, v.Confidence)

	v, ok = Extract("no error code", []Slot{SlotErrorCode}, nil).Get(SlotErrorCode)
	assert.True(t, ok)
	assert.Equal(t, ErrorCodeNone, v.Value)

	// Outside the error-code question, "no" stays unparsed.
	_, ok = Extract("no", nil, nil).Get(SlotErrorCode)
	assert.False(t, ok)
}
