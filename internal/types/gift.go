package types

// GiftResponse is the externally visible projection of a gift. For the list
// owner the reservation fields (taken-by id/name, participant names, comment)
// are nulled; only isTaken and participantCount survive redaction.
type GiftResponse struct {
	ID               uint     `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	URL              string   `json:"url,omitempty"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	Price            *float64 `json:"price"`
	Currency         string   `json:"currency,omitempty"`
	Year             int      `json:"year"`
	IsTaken          bool     `json:"isTaken"`
	TakenByUserID    *uint    `json:"takenByUserId"`
	TakenByUserName  *string  `json:"takenByUserName"`
	Comment          *string  `json:"comment"`
	IsGroupGift      bool     `json:"isGroupGift"`
	ParticipantCount int      `json:"participantCount"`
	ParticipantNames []string `json:"participantNames"`
}
