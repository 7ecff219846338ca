package hierarchy

import "github.com/google/uuid"

// Intent is a validated relocation handed to the persistence layer:
// move LocationID under ParentID ("" for top level) at SiblingIndex.
// ID correlates the intent with logs and asynchronous confirmations.
type Intent struct {
	ID           string `json:"id"`
	LocationID   string `json:"location_id"`
	ParentID     string `json:"parent_id,omitempty"`
	SiblingIndex int    `json:"sibling_index"`
}

// NewIntent returns an intent with a fresh random id.
func NewIntent(locationID string, t Target) Intent {
	return Intent{
		ID:           uuid.NewString(),
		LocationID:   locationID,
		ParentID:     t.ParentID,
		SiblingIndex: t.SiblingIndex,
	}
}

// Target returns the intent's destination.
func (i Intent) Target() Target {
	return Target{ParentID: i.ParentID, SiblingIndex: i.SiblingIndex}
}
