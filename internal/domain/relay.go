package domain

// RelayKind selects how the RelayRouter wraps a forwarded payload.
type RelayKind string

const (
	RelayOffer     RelayKind = "offer"
	RelayAnswer    RelayKind = "answer"
	RelayCandidate RelayKind = "candidate"
	RelayChat      RelayKind = "chat"
)
