package domain

import "time"

// ClientTier classifies a client's strategic value to the promoter.
type ClientTier string

const (
	TierCold   ClientTier = "COLD"
	TierMedium ClientTier = "MEDIUM"
	TierHot    ClientTier = "HOT"
	TierVIP    ClientTier = "VIP"
)

// IsValid reports whether the tier is one of the four known values.
func (t ClientTier) IsValid() bool {
	switch t {
	case TierCold, TierMedium, TierHot, TierVIP:
		return true
	}
	return false
}

// Recurrent reports whether a tier counts toward the promoter's hot base.
// is_recurrent on a stored client must always equal Recurrent of its tier.
func (t ClientTier) Recurrent() bool {
	return t == TierHot || t == TierVIP
}

// PartyType captures the client's preferred event format.
type PartyType string

const (
	PartyOpenBar    PartyType = "OPEN_BAR"
	PartyOpenFormat PartyType = "OPEN_FORMAT"
	PartyGenreClub  PartyType = "GENRE_CLUB"
	PartyPremium    PartyType = "PREMIUM"
)

// SpendBand is a coarse average-ticket-spend classification.
type SpendBand string

const (
	SpendLow    SpendBand = "LOW"
	SpendMedium SpendBand = "MEDIUM"
	SpendHigh   SpendBand = "HIGH"
)

// Client is a member of a promoter's relationship base. Rows are scoped to
// exactly one owner and never hard-deleted in normal flow.
type Client struct {
	ID          int64
	OwnerID     string
	Name        string
	Nickname    *string
	WhatsApp    string
	Instagram   *string
	Followers   int
	Gender      *string
	MusicGenres []string
	PartyType   PartyType
	SpendBand   SpendBand
	Tier        ClientTier
	IsRecurrent bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
