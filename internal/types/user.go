package types

type UserResponse struct {
	ID         uint   `json:"id"`
	Login      string `json:"login"`
	FirstName  string `json:"firstName,omitempty"`
	Pseudo     string `json:"pseudo,omitempty"`
	Email      string `json:"email,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	IsAdmin    bool   `json:"isAdmin"`
	IsChildren bool   `json:"isChildren"`
	FamilyID   uint   `json:"familyId"`
}
