package models

import "time"

// Contact is a personal contact record owned by exactly one account.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactPatch holds the optional fields of a partial update. Nil means unchanged.
type ContactPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Favorite *bool   `json:"favorite"`
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Favorite == nil
}

// ContactPage is one page of an owner's contacts.
type ContactPage struct {
	Docs       []Contact `json:"docs"`
	TotalDocs  int       `json:"totalDocs"`
	Limit      int       `json:"limit"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}
