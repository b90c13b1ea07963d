// Package sanitize scrubs personal-health-identifying content from text
// crossing the process boundary in either direction.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// AuditRecord is the compliance trail for one message. It carries a
// non-reversible hash and a flag; the raw text is never stored.
type AuditRecord struct {
	Hash         string
	ContainedPHI bool
}

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Gateway applies the same class of scrub to outbound user text and to
// inbound model text. Scrubbing is deterministic and idempotent: the
// replacement tokens never match any rule themselves.
type Gateway struct {
	rules []rule
}

// NewGateway creates a gateway with the default rule set
func NewGateway() *Gateway {
	return &Gateway{
		rules: []rule{
			{
				pattern:     regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
				replacement: "[redacted email]",
			},
			{
				pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
				replacement: "[redacted id]",
			},
			{
				pattern:     regexp.MustCompile(`(\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}\b`),
				replacement: "[redacted phone]",
			},
			{
				pattern:     regexp.MustCompile(`(?i)\b(?:i was|i have been|i am|i'm|my \w+ was) diagnosed with\b[^.!?\n]*`),
				replacement: "[redacted health disclosure]",
			},
			{
				pattern:     regexp.MustCompile(`(?i)\bmy (?:doctor|physician|therapist|psychiatrist) (?:said|told me|prescribed)\b[^.!?\n]*`),
				replacement: "[redacted health disclosure]",
			},
			{
				pattern:     regexp.MustCompile(`(?i)\bi(?:'m| am) (?:taking|on) (?:medication|meds|insulin|antidepressants)\b[^.!?\n]*`),
				replacement: "[redacted health disclosure]",
			},
		},
	}
}

// Outbound scrubs text before it leaves the process
func (g *Gateway) Outbound(text string) string {
	return g.scrub(text)
}

// Inbound scrubs model output in case it echoes sensitive content back
func (g *Gateway) Inbound(text string) string {
	return g.scrub(text)
}

// Audit derives the compliance record for a message. Callers log the
// record, never the text.
func (g *Gateway) Audit(text string) AuditRecord {
	sum := sha256.Sum256([]byte(text))
	return AuditRecord{
		Hash:         hex.EncodeToString(sum[:]),
		ContainedPHI: g.scrub(text) != text,
	}
}

// scrub applies every rule in order. Sanitization must never fail a
// request: any internal panic degrades to returning the input unchanged.
// Fail-open is a deliberate product trade-off; it favors availability
// over guaranteed redaction and is flagged as such in the design notes.
func (g *Gateway) scrub(text string) (out string) {
	out = text
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()

	scrubbed := text
	for _, r := range g.rules {
		scrubbed = r.pattern.ReplaceAllString(scrubbed, r.replacement)
	}
	return scrubbed
}
