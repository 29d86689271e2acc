package services

import (
	"github.com/nawel-dev/nawel/internal/models"
	"github.com/nawel-dev/nawel/internal/types"
)

// BuildGiftResponse projects a gift for a viewer. The gift must be loaded
// with TakenByUser and its active Participations (with users). When ownerView
// is true the reservation details are suppressed so the list owner only
// learns that the gift is taken and by how many people.
//
// The holder recorded in TakenBy has no participation row of its own, so it
// contributes an implicit +1 to the participant count and leads the name
// list.
func BuildGiftResponse(gift *models.Gift, ownerView bool) types.GiftResponse {
	resp := types.GiftResponse{
		ID:          gift.ID,
		Name:        gift.Name,
		Description: gift.Description,
		URL:         gift.Link,
		ImageURL:    gift.Image,
		Price:       gift.Cost,
		Currency:    gift.Currency,
		Year:        gift.Year,
		IsTaken:     !gift.Available,
		IsGroupGift: gift.IsGroupGift,
	}

	count := len(gift.Participations)

	if gift.TakenBy != nil {
		count++
	}

	resp.ParticipantCount = count

	if ownerView {
		return resp
	}

	if gift.TakenBy != nil {
		resp.TakenByUserID = gift.TakenBy

		if gift.TakenByUser != nil {
			name := gift.TakenByUser.DisplayName()
			resp.TakenByUserName = &name
		}
	}

	if gift.Comment != "" {
		comment := gift.Comment
		resp.Comment = &comment
	}

	if count > 0 {
		names := make([]string, 0, count)

		if gift.TakenByUser != nil {
			names = append(names, gift.TakenByUser.DisplayName())
		}

		for _, p := range gift.Participations {
			names = append(names, p.User.DisplayName())
		}

		resp.ParticipantNames = names
	}

	return resp
}
