package repository

import (
	"context"
	"errors"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TriviaRepository struct {
	Col *mongo.Collection
}

func NewTriviaRepository(db *mongo.Database) *TriviaRepository {
	return &TriviaRepository{Col: db.Collection("trivias")}
}

func (r *TriviaRepository) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]models.Trivia, error) {
	defer cur.Close(ctx)
	var trivias []models.Trivia
	for cur.Next(ctx) {
		var t models.Trivia
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		trivias = append(trivias, t)
	}
	return trivias, cur.Err()
}

func (r *TriviaRepository) FindActive(ctx context.Context) ([]models.Trivia, error) {
	cur, err := r.Col.Find(ctx, bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *TriviaRepository) FindAll(ctx context.Context) ([]models.Trivia, error) {
	cur, err := r.Col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *TriviaRepository) FindByCreator(ctx context.Context, userID string) ([]models.Trivia, error) {
	cur, err := r.Col.Find(ctx, bson.M{"created_by": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *TriviaRepository) FindByID(ctx context.Context, id string) (*models.Trivia, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var trivia models.Trivia
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&trivia)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trivia, nil
}

func (r *TriviaRepository) FindByCode(ctx context.Context, code string) (*models.Trivia, error) {
	var trivia models.Trivia
	err := r.Col.FindOne(ctx, bson.M{"code": code}).Decode(&trivia)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trivia, nil
}

func (r *TriviaRepository) Create(ctx context.Context, trivia *models.Trivia) error {
	res, err := r.Col.InsertOne(ctx, trivia)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		trivia.ID = oid.Hex()
	}
	return nil
}

func (r *TriviaRepository) Update(ctx context.Context, id string, update bson.M) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	_, err = r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	return err
}

func (r *TriviaRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	_, err = r.Col.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}
