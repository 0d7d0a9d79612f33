package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/account-service/internal/domain/entity"
)

type accountDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	LastName    string             `bson:"lastname"`
	FirstName   string             `bson:"firstname"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	DateOfBirth time.Time          `bson:"dateOfBirth"`
	Verified    bool               `bson:"verified"`
	IsAdmin     bool               `bson:"isAdmin"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *accountDoc) toEntity() *entity.Account {
	return &entity.Account{
		ID:           d.ID.Hex(),
		LastName:     d.LastName,
		FirstName:    d.FirstName,
		Email:        d.Email,
		PasswordHash: d.Password,
		DateOfBirth:  d.DateOfBirth,
		Verified:     d.Verified,
		IsAdmin:      d.IsAdmin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// uniqueString holds the bcrypt hash of the raw token, never the token.
type verificationDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"userId"`
	UniqueString string             `bson:"uniqueString"`
	CreatedAt    time.Time          `bson:"createdAt"`
	ExpiresAt    time.Time          `bson:"expiresAt"`
}

func (d *verificationDoc) toEntity() *entity.Verification {
	return &entity.Verification{
		ID:        d.ID.Hex(),
		AccountID: d.UserID.Hex(),
		TokenHash: d.UniqueString,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
