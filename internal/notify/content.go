package notify

import (
	"context"
	"fmt"

	"github.com/aureus-network/aureus-indexer/internal/chain"
)

// ClaimantSource resolves a bounty claim id to the claimant wallet. The
// claim resolution events only carry the claim id; the recipient comes from
// the projected claim row.
type ClaimantSource interface {
	ClaimantForClaim(ctx context.Context, claimID uint64) (string, error)
}

// Content is the recipient-facing rendering of an event, shared by the
// in-app and email channels. Only a fixed set of event kinds produces
// recipient notifications; everything else fans out to webhooks only.
type Content struct {
	// Recipient is the wallet address the notification is for
	Recipient string

	// Title is the short headline (in-app title, email subject)
	Title string

	// Message is the one-line body
	Message string
}

// Renderer turns events into notification content.
type Renderer struct {
	claims ClaimantSource
}

// NewRenderer creates a renderer resolving claim recipients through claims.
func NewRenderer(claims ClaimantSource) *Renderer {
	return &Renderer{claims: claims}
}

// ContentFor renders an event into notification content. The second return
// is false for event kinds that carry no recipient notification, and for
// events whose recipient cannot be resolved.
func (r *Renderer) ContentFor(ctx context.Context, ev *chain.Event) (Content, bool, error) {
	switch ev.Kind {
	case "endorsement.created":
		endorsee := ev.ArgString("endorsee")
		if endorsee == "" {
			return Content{}, false, nil
		}
		return Content{
			Recipient: endorsee,
			Title:     "New endorsement",
			Message:   fmt.Sprintf("%s endorsed one of your skills", ev.ArgString("endorser")),
		}, true, nil

	case "claim.approved":
		claimant, err := r.claimant(ctx, ev)
		if err != nil || claimant == "" {
			return Content{}, false, err
		}
		return Content{
			Recipient: claimant,
			Title:     "Bounty claim approved",
			Message:   fmt.Sprintf("your claim was approved with a payout of %s", ev.ArgString("payout")),
		}, true, nil

	case "claim.rejected":
		claimant, err := r.claimant(ctx, ev)
		if err != nil || claimant == "" {
			return Content{}, false, err
		}
		return Content{
			Recipient: claimant,
			Title:     "Bounty claim rejected",
			Message:   fmt.Sprintf("your claim was rejected: %s", ev.ArgString("reason")),
		}, true, nil
	}

	return Content{}, false, nil
}

func (r *Renderer) claimant(ctx context.Context, ev *chain.Event) (string, error) {
	claimID, err := ev.ArgUint64("claimId")
	if err != nil {
		return "", fmt.Errorf("%s event %s: %w", ev.Kind, ev.TxHash.Hex(), err)
	}

	return r.claims.ClaimantForClaim(ctx, claimID)
}
