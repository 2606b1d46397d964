package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

func TestClaimsCompletion(t *testing.T) {
	for text, want := range map[string]bool{
		"Done!":                                   true,
		"Your booking has been cancelled.":        true,
		"Saturday was successfully closed.":       true,
		"C'est fait !":                            true,
		"Modification effectuée.":                 true,
		"I deleted your plumbing service.":        true,
		"Booking cancelled ✅":                     true,
		"Saturday is now closed.":                 true,
		"I've updated your opening hours.":        true,
		"OK. Both services are activated.":        true,
		"J'ai supprimé le service Plomberie…":     true,
		"Le rendez-vous est annulé.":              true,
		"Vos services sont bien activés.":         true,
		"I'm closing Saturday.":                   false,
		"Do you want me to delete Plumbing?":      false,
		"Do you want Saturday closed?":            false,
		"I will cancel it once you confirm.":      false,
		"Here is the result.":                     false,
		"Nothing was changed yet.":                false,
		"No action was carried out.":              false,
		"I could not carry out that request.":     false,
		"The booking wasn't cancelled.":           false,
		"Le service n'est pas supprimé.":          false,
		"Voulez-vous que je supprime Plomberie ?": false,
	} {
		assert.Equal(t, want, claimsCompletion(text), text)
	}
}

func TestAssembleReply(t *testing.T) {
	success := domain.ActionOutcome{Tool: "confirm_booking", Result: domain.ActionResultSuccess, Detail: "Booking confirmed"}
	failure := domain.ActionOutcome{Tool: "cancel_booking", Result: domain.ActionResultError, Detail: "Booking b1 not found."}

	t.Run("keeps the model text when something succeeded", func(t *testing.T) {
		r := &dispatchResult{outcomes: []domain.ActionOutcome{success, failure}}
		assert.Equal(t, "All done.\n\nFailed:\n- cancel_booking: Booking b1 not found.", assembleReply("All done.", r))
	})

	t.Run("replaces a claim when nothing succeeded", func(t *testing.T) {
		r := &dispatchResult{outcomes: []domain.ActionOutcome{failure}}
		assert.Equal(t, "I could not carry out that request.\n\nFailed:\n- cancel_booking: Booking b1 not found.", assembleReply("Done!", r))
	})

	t.Run("appends read results", func(t *testing.T) {
		r := &dispatchResult{
			outcomes:    []domain.ActionOutcome{{Tool: "list_services", Result: domain.ActionResultSuccess, Detail: "- Repair"}},
			readDetails: []string{"- Repair"},
		}
		assert.Equal(t, "Your services:\n\n- Repair", assembleReply("Your services:", r))
	})

	t.Run("fills an empty reply", func(t *testing.T) {
		assert.Equal(t, "How can I help you?", assembleReply("  ", &dispatchResult{}))
	})

	t.Run("replaces any text when only a confirmation is pending", func(t *testing.T) {
		r := &dispatchResult{pending: &domain.PendingDescriptor{}}
		assert.Equal(t, "Nothing was changed yet. Please confirm the action below.", assembleReply("", r))
		assert.Equal(t, "Nothing was changed yet. Please confirm the action below.", assembleReply("Plumbing is gone for good", r))
	})

	t.Run("keeps a plain answer when nothing was attempted", func(t *testing.T) {
		assert.Equal(t, "Your next booking is on Monday.", assembleReply("Your next booking is on Monday.", &dispatchResult{}))
		assert.Equal(t, "No action was carried out.", assembleReply("I deleted it.", &dispatchResult{}))
	})
}
