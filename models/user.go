package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const RoleAdmin = "admin"

type User struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email" validate:"required,email"`
	Role  string             `json:"role,omitempty" bson:"role,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Doctor struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name" validate:"required"`
	Email     string              `json:"email" bson:"email" validate:"omitempty,email"`
	Specialty string              `json:"specialty" bson:"specialty" validate:"required"`
	Image     string              `json:"img,omitempty" bson:"img,omitempty"`
	Schedule  map[string][]string `json:"schedule,omitempty" bson:"schedule,omitempty"`
}
