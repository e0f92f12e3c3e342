// Package workflow implements the post-event evaluation workflow: the tier
// progression rule and the per-session state machine that walks a promoter
// through pending guest evaluations. The package is IO-free; persistence is
// owned by the service layer.
package workflow

import "github.com/spec-kit/promoter-service/internal/domain"

// SuggestTier computes the advisory tier for a client after an event.
// Attendance reinforces the tier one step up except at the ceiling; absence
// decays it one step down except for VIP, which is sticky. The result seeds
// the form default only; the promoter's final choice wins.
func SuggestTier(current domain.ClientTier, attended bool) domain.ClientTier {
	if !current.IsValid() {
		current = domain.TierCold
	}
	if attended {
		switch current {
		case domain.TierCold:
			return domain.TierMedium
		case domain.TierMedium:
			return domain.TierHot
		default:
			return current
		}
	}
	switch current {
	case domain.TierMedium:
		return domain.TierCold
	case domain.TierHot:
		return domain.TierMedium
	case domain.TierVIP:
		return domain.TierVIP
	default:
		return domain.TierCold
	}
}
