// internal/domain/models/editor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Editor is a collaborator who can be invited onto creators' teams.
// Rating is the running sum of ratings received; People is how many
// ratings contributed to it.
type Editor struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Rating    int                `bson:"rating" json:"rating"`
	People    int                `bson:"people" json:"people"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Reputation is rating / max(people, 1). An editor nobody has rated
// yet has reputation 1.
func (e Editor) Reputation() float64 {
	if e.Rating <= 0 {
		return 1
	}
	people := e.People
	if people < 1 {
		people = 1
	}
	return float64(e.Rating) / float64(people)
}
