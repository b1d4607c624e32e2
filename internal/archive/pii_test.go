package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

func TestHashCaller(t *testing.T) {
	h := HashCaller("+13055551234")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashCaller("+1 (305) 555-1234"), "formatting does not change the hash")
	assert.NotEqual(t, h, HashCaller("+15551234567"))
	assert.Empty(t, HashCaller(""))
	assert.Empty(t, HashCaller("anonymous"))
}

func TestRedactGenericPatterns(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"email", "contact me at dana@example.com please", "contact me at [EMAIL] please"},
		{"formatted phone", "call me at (305) 555-1234", "call me at [PHONE]"},
		{"e164 phone", "my cell is +13055551234.", "my cell is [PHONE]."},
		{"spoken phone", "it's five five five, one two three four", "it's [PHONE]"},
		{"address", "it's 12 Elm Street, Springfield", "it's [ADDRESS], Springfield"},
		{"abbreviated address", "we're at 4500 N Ocean Blvd.", "we're at [ADDRESS]"},
		{"no pii", "I need a kitchen remodel", "I need a kitchen remodel"},
		{"name kept", "My name is Dana Whitfield", "My name is Dana Whitfield"},
		{"slot times kept", "Option 1: tomorrow at 9 a.m.", "Option 1: tomorrow at 9 a.m."},
		{"ordinal words kept", "option two, the one at ten", "option two, the one at ten"},
	}
	var r *Redactor
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, r.Redact(tt.input))
		})
	}
}

func TestRedactCapturedFacts(t *testing.T) {
	r := NewRedactor(scheduling.AttendeeFacts{
		Name:    "Dana",
		Address: "77 Harbor View",
		Phone:   "305 555 1234",
	})

	assert.Equal(t, "Dana here, I'm at [ADDRESS], unit 4", r.Redact("Dana here, I'm at 77 harbor view, unit 4"))
	assert.Equal(t, "Booked for [ADDRESS].", r.Redact("Booked for 77 Harbor View."))
	assert.Equal(t, "reach me on [PHONE]", r.Redact("reach me on 305 555 1234"))
}

func TestNewRedactorIgnoresShortFacts(t *testing.T) {
	r := NewRedactor(scheduling.AttendeeFacts{Address: "here", Phone: "12"})
	assert.Empty(t, r.known)
	assert.Equal(t, "over here 12 times", r.Redact("over here 12 times"))
}
