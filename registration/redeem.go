package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/tea-network/teanet/users"
)

type RedeemAction string

const (
	ACTION_ARRIVE        RedeemAction = "ARRIVE"
	ACTION_BASIC_PERK    RedeemAction = "BASIC_PERK"
	ACTION_ADVANCED_PERK RedeemAction = "ADVANCED_PERK"
)

type RedeemResult struct {
	Registration   Registration
	AlreadyApplied bool
}

// Redeem applies one of the three one-way door flags to the registration
// holding the scanned ticket code. Only organizer/admin roles may redeem.
// Re-scans are reported as AlreadyApplied rather than treated as errors,
// including when two scanners race: the loser of the version race re-reads
// and sees the winner's flag.
func Redeem(ctx context.Context, ticketCode string, action RedeemAction, actorRole users.Role, repo Repository) (RedeemResult, error) {
	ctx, span := tracer.Start(ctx, "registration.Redeem")
	defer span.End()

	if !users.CanRedeemTickets(actorRole) {
		return RedeemResult{}, NewNotAuthorizedError(fmt.Sprintf("Role %q may not redeem tickets", actorRole))
	}

	for {
		reg, err := repo.GetRegistrationByTicketCode(ctx, ticketCode)
		if err != nil {
			return RedeemResult{}, err
		}
		if reg.Voided {
			return RedeemResult{}, NewTicketCodeNotFoundError("Ticket code belongs to a voided registration", nil)
		}

		applied, err := applyAction(&reg, action)
		if err != nil {
			return RedeemResult{}, err
		}
		if applied {
			return RedeemResult{Registration: reg, AlreadyApplied: true}, nil
		}

		reg.Version++
		err = repo.UpdateRegistration(ctx, reg)
		if err == nil {
			return RedeemResult{Registration: reg}, nil
		}

		var regErr *Error
		if errors.As(err, &regErr) && regErr.Reason == REASON_STORE_CONFLICT {
			continue
		}
		return RedeemResult{}, err
	}
}

// applyAction sets the requested flag, reporting whether it was already
// set. The three flags are independent; no ordering is enforced between
// arrival and perk application.
func applyAction(reg *Registration, action RedeemAction) (alreadyApplied bool, err error) {
	switch action {
	case ACTION_ARRIVE:
		if reg.HasArrived {
			return true, nil
		}
		reg.HasArrived = true
	case ACTION_BASIC_PERK:
		if reg.BasicPerkApplied {
			return true, nil
		}
		reg.BasicPerkApplied = true
	case ACTION_ADVANCED_PERK:
		if reg.AdvancedPerkApplied {
			return true, nil
		}
		reg.AdvancedPerkApplied = true
	default:
		return false, NewFailedToWriteError(fmt.Sprintf("Unknown redeem action %q", action), nil)
	}
	return false, nil
}
