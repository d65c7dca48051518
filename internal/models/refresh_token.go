package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken stores the hash of an issued refresh token. A token is
// usable while RevokedAt is nil and ExpiresAt lies in the future.
type RefreshToken struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `bson:"userId"`
	TokenHash  string              `bson:"tokenHash"`
	ExpiresAt  time.Time           `bson:"expiresAt"`
	RevokedAt  *time.Time          `bson:"revokedAt,omitempty"`
	ReplacedBy *primitive.ObjectID `bson:"replacedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt"`
}

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
