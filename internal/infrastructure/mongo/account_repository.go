package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/account-service/internal/domain/entity"
	"github.com/oksasatya/account-service/internal/domain/repository"
)

type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(AccountsCollection)}
}

// Create assigns a new ObjectID before inserting so the caller knows the id
// even when the insert fails.
func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	oid := primitive.NewObjectID()
	a.ID = oid.Hex()
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	_, err := r.col.InsertOne(ctx, accountDoc{
		ID:          oid,
		LastName:    a.LastName,
		FirstName:   a.FirstName,
		Email:       a.Email,
		Password:    a.PasswordHash,
		DateOfBirth: a.DateOfBirth,
		Verified:    a.Verified,
		IsAdmin:     a.IsAdmin,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*entity.Account, error) {
	var d accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) updateOne(ctx context.Context, filter, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetVerified(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"verified": true})
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.updateOne(ctx, bson.M{"email": email}, bson.M{"password": passwordHash})
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ListUnverifiedBefore(ctx context.Context, before time.Time) ([]*entity.Account, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"verified":  bson.M{"$ne": true},
		"createdAt": bson.M{"$lt": before},
	})
	if err != nil {
		return nil, err
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.Account, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
