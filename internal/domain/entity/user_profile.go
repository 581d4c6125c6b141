package entity

import (
	"time"
)

// UserProfile lives at users/{uid}. The zero value marshals to {} and stands for "no profile".
type UserProfile struct {
	DocID          string     `json:"docId,omitempty" firestore:"-"`
	UserID         string     `json:"userId,omitempty" firestore:"userId"`
	FirstName      string     `json:"firstName,omitempty" firestore:"firstName"`
	LastName       string     `json:"lastName,omitempty" firestore:"lastName"`
	Gender         string     `json:"gender,omitempty" firestore:"gender"`
	Email          string     `json:"email,omitempty" firestore:"email"`
	ProfilePicture *string    `json:"profilePicture,omitempty" firestore:"profilePicture,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
}

func (p UserProfile) IsZero() bool {
	return p.DocID == "" && p.UserID == ""
}
