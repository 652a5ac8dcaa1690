// models/user.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record the ranking engine treats as an external
// collaborator: auth, validation and CRUD around it live outside this
// module's scope. Only the fields the feed path actually reads are kept.
type User struct {
	BaseModel `bson:",inline"`

	Username string `json:"username" bson:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	IsActive bool   `json:"is_active" bson:"is_active"`
}

// IDHex returns the hex form of the user id, the shape used everywhere
// profiles and sessions reference a user.
func (u *User) IDHex() string {
	return u.ID.Hex()
}

func ObjectIDFromHex(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
