package service

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	enDone = `deleted|removed|cancell?ed|closed|opened|reopened|updated|changed|modified|activated|deactivated|` +
		`enabled|disabled|created|added|confirmed|rescheduled|moved|sent|saved|linked|unlinked|booked|scheduled|` +
		`completed|finished|applied|turned (?:on|off)`
	frDone = `supprimée?s?|annulée?s?|fermée?s?|ouverte?s?|modifiée?s?|activée?s?|désactivée?s?|créée?s?|` +
		`ajoutée?s?|confirmée?s?|envoyée?s?|enregistrée?s?|déplacée?s?|reportée?s?|effectuée?s?|mise?s? à jour|fait`
)

// completionClaim matches, within one sentence, wording that reports an
// action as already carried out: a first person past ("I deleted", "j'ai
// supprimé"), a resulting state ("is now closed", "est annulé"), a bare
// participle ending the sentence ("Booking cancelled ✅") or a stock phrase.
var completionClaim = regexp.MustCompile(`(?i)` +
	`\b(?:done|all set|successfully)\b|[✅✔]` +
	`|\b(?:i|i've|i’ve|i have|we|we've|we’ve|we have)\s+(?:just\s+|now\s+|already\s+|successfully\s+)?(?:` + enDone + `)\b` +
	`|\b(?:is|are|was|were|been|now)\s+(?:now\s+|successfully\s+|all\s+)?(?:` + enDone + `)\b` +
	`|(?:j'ai|j’ai|nous avons|est|sont|a été|ont été|c'est|c’est)\s+(?:bien\s+|maintenant\s+|déjà\s+)?(?:` + frDone + `)(?:$|[^\p{L}])` +
	`|(?:^|[^\p{L}'’])(?:` + enDone + `|` + frDone + `)\s*$`)

// negated matches sentences that deny an outcome ("Nothing was changed").
var negated = regexp.MustCompile(`(?i)\b(?:not|nothing|never|none)\b|n['’]t\b|\b(?:pas|rien|aucune?|jamais)\b`)

var sentencePattern = regexp.MustCompile(`[^.!?…\n]+[.!?…]*`)

// claimsCompletion reports whether a sentence of text asserts that something
// was done. Questions and negated sentences never do.
func claimsCompletion(text string) bool {
	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || strings.HasSuffix(sentence, "?") || negated.MatchString(sentence) {
			continue
		}
		body := strings.TrimRight(sentence, ".!…")
		if completionClaim.MatchString(body) {
			return true
		}
	}
	return false
}

// assembleReply builds the reply shown to the user from the model's text and
// what actually happened. The model writes its text before any tool runs, so
// the text is replaced whenever something was attempted or parked and nothing
// succeeded. A turn without any action keeps the text unless it claims
// completion. Results of read tools and every failure are appended.
func assembleReply(modelText string, r *dispatchResult) string {
	text := strings.TrimSpace(modelText)
	if r.succeeded() == 0 {
		attempted := len(r.outcomes) > 0 || r.pending != nil
		if attempted || claimsCompletion(text) {
			text = neutralReply(r)
		}
	}
	if text == "" {
		text = defaultReply(r)
	}

	var b strings.Builder
	b.WriteString(text)
	for _, d := range r.readDetails {
		if d = strings.TrimSpace(d); d != "" {
			b.WriteString("\n\n")
			b.WriteString(d)
		}
	}

	var failed []string
	for _, o := range r.outcomes {
		if !o.Succeeded() {
			failed = append(failed, fmt.Sprintf("- %s: %s", o.Tool, o.Detail))
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n\nFailed:\n")
		b.WriteString(strings.Join(failed, "\n"))
	}
	return b.String()
}

func neutralReply(r *dispatchResult) string {
	switch {
	case r.pending != nil:
		return "Nothing was changed yet. Please confirm the action below."
	case len(r.outcomes) > 0:
		return "I could not carry out that request."
	default:
		return "No action was carried out."
	}
}

func defaultReply(r *dispatchResult) string {
	switch {
	case r.pending != nil:
		return "Please confirm the action below."
	case len(r.outcomes) > 0:
		return "Here is the result."
	default:
		return "How can I help you?"
	}
}
