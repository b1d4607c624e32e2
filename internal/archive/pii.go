package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

const (
	maskEmail   = "[EMAIL]"
	maskPhone   = "[PHONE]"
	maskAddress = "[ADDRESS]"
)

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`(?:\+?1[-.\s]?)?(?:\([0-9]{3}\)|[0-9]{3})[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
	streetPattern = regexp.MustCompile(`(?i)\b\d{1,6}\s+(?:[a-z0-9.']+\s+){0,4}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl|terrace|circle|cir)\b\.?`)

	// Seven or more digit words in a row: a phone number read aloud.
	spokenDigits = regexp.MustCompile(`(?i)\b(?:(?:zero|oh|one|two|three|four|five|six|seven|eight|nine)[\s,\-]+){6,}(?:zero|oh|one|two|three|four|five|six|seven|eight|nine)\b`)
)

type knownValue struct {
	re   *regexp.Regexp
	mask string
}

// Redactor masks caller contact details in transcript text. On top of the
// generic patterns it masks the exact address and phone captured during the
// call, which catches addresses with no street suffix.
type Redactor struct {
	known []knownValue
}

// NewRedactor builds a redactor for one session's captured facts. The name is
// not masked.
func NewRedactor(facts scheduling.AttendeeFacts) *Redactor {
	r := &Redactor{}
	if addr := strings.TrimSpace(facts.Address); len(addr) >= 6 {
		r.add(addr, maskAddress)
	}
	if phone := strings.TrimSpace(facts.Phone); len(phone) >= 7 {
		r.add(phone, maskPhone)
	}
	return r
}

func (r *Redactor) add(value, mask string) {
	r.known = append(r.known, knownValue{
		re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(value)),
		mask: mask,
	})
}

// Redact returns text with contact details replaced by placeholders. A nil
// Redactor applies the generic patterns only.
func (r *Redactor) Redact(text string) string {
	if r != nil {
		for _, k := range r.known {
			text = k.re.ReplaceAllString(text, k.mask)
		}
	}
	text = emailPattern.ReplaceAllString(text, maskEmail)
	text = streetPattern.ReplaceAllString(text, maskAddress)
	text = phonePattern.ReplaceAllString(text, maskPhone)
	return spokenDigits.ReplaceAllString(text, maskPhone)
}

// HashCaller returns a stable SHA-256 of the caller number's digits, so
// "+1 (305) 555-1234" and "+13055551234" hash alike.
func HashCaller(number string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(digits.String()))
	return hex.EncodeToString(sum[:])
}
