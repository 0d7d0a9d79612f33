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

type VerificationRepository struct {
	col *mongo.Collection
}

func NewVerificationRepository(db *mongo.Database) *VerificationRepository {
	return &VerificationRepository{col: db.Collection(VerificationsCollection)}
}

func (r *VerificationRepository) Create(ctx context.Context, v *entity.Verification) error {
	userID, err := primitive.ObjectIDFromHex(v.AccountID)
	if err != nil {
		return err
	}
	oid := primitive.NewObjectID()
	_, err = r.col.InsertOne(ctx, verificationDoc{
		ID:           oid,
		UserID:       userID,
		UniqueString: v.TokenHash,
		CreatedAt:    v.CreatedAt,
		ExpiresAt:    v.ExpiresAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return err
	}
	v.ID = oid.Hex()
	return nil
}

func (r *VerificationRepository) GetByAccountID(ctx context.Context, accountID string) (*entity.Verification, error) {
	userID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var d verificationDoc
	if err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d.toEntity(), nil
}

func (r *VerificationRepository) DeleteByAccountID(ctx context.Context, accountID string) (bool, error) {
	userID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return false, nil
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *VerificationRepository) ListExpired(ctx context.Context, now time.Time) ([]*entity.Verification, error) {
	cur, err := r.col.Find(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return nil, err
	}
	var docs []verificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.Verification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toEntity())
	}
	return out, nil
}

var _ repository.VerificationRepository = (*VerificationRepository)(nil)
