package model

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the subset of the user document the chat core reads. Credential
// and verification fields live with the auth service and are never loaded
// here.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName      string             `json:"firstName" bson:"first_name"`
	LastName       string             `json:"lastName" bson:"last_name"`
	Age            int                `json:"age" bson:"age"`
	Gender         string             `json:"gender" bson:"gender"`
	About          string             `json:"about" bson:"about"`
	ProfilePicture string             `json:"profilePicture" bson:"profile_picture"`
}

// UserView is the safe projection attached to conversation lists: identity
// fields only.
type UserView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Avatar    string `json:"avatar"`
}

const defaultAvatar = "/default-avatar.png"

func (u *User) View() UserView {
	avatar := u.ProfilePicture
	if avatar == "" {
		avatar = defaultAvatar
	}
	return UserView{
		ID:        u.ID.Hex(),
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Gender:    u.Gender,
		Avatar:    avatar,
	}
}
