package repository

import (
	"context"
	"errors"
	"fmt"

	"trivia-service/internal/domain"
	"trivia-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxCASRetries bounds the compare-and-swap loop in AtomicUpdate.
// Contention on one (user, trivia) attempt is a single player revising
// answers, so collisions are rare and short-lived.
const maxCASRetries = 5

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

func (r *ResultRepository) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]models.Result, error) {
	defer cur.Close(ctx)
	var results []models.Result
	for cur.Next(ctx) {
		var res models.Result
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var result models.Result
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindByUserAndTrivia(ctx context.Context, userID, triviaID string) (*models.Result, error) {
	var result models.Result
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "trivia_id": triviaID}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindByTrivia(ctx context.Context, triviaID string) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"trivia_id": triviaID})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *ResultRepository) FindCompleted(ctx context.Context) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"completed_at": bson.M{"$ne": nil}})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *ResultRepository) FindCompletedByTrivia(ctx context.Context, triviaID string) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"trivia_id": triviaID, "completed_at": bson.M{"$ne": nil}})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

func (r *ResultRepository) FindCompletedByUser(ctx context.Context, userID string) ([]models.Result, error) {
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID, "completed_at": bson.M{"$ne": nil}})
	if err != nil {
		return nil, err
	}
	return r.decodeAll(ctx, cur)
}

// Create inserts a fresh attempt. The unique (user_id, trivia_id)
// index turns a duplicate start race into ErrConflict.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	res, err := r.Col.InsertOne(ctx, result)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}
	return nil
}

// AtomicUpdate runs mutate against the current attempt for the
// (user, trivia) pair and persists it with a compare-and-swap on the
// version field. A concurrent writer bumps the version, the swap
// matches nothing, and the loop re-reads and re-applies. This is the
// storage contract that keeps concurrent answer submissions from
// losing each other's score deltas.
func (r *ResultRepository) AtomicUpdate(ctx context.Context, userID, triviaID string, mutate func(*models.Result) error) (*models.Result, error) {
	for i := 0; i < maxCASRetries; i++ {
		result, err := r.FindByUserAndTrivia(ctx, userID, triviaID)
		if err != nil {
			return nil, err
		}
		prev := result.Version
		if err := mutate(result); err != nil {
			return nil, err
		}
		result.Version = prev + 1

		objID, err := primitive.ObjectIDFromHex(result.ID)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		upd, err := r.Col.UpdateOne(ctx,
			bson.M{"_id": objID, "version": prev},
			bson.M{"$set": bson.M{
				"score":        result.Score,
				"answers":      result.Answers,
				"completed_at": result.CompletedAt,
				"version":      result.Version,
			}})
		if err != nil {
			return nil, err
		}
		if upd.ModifiedCount == 1 {
			return result, nil
		}
	}
	return nil, fmt.Errorf("attempt update for user %s contended beyond %d retries", userID, maxCASRetries)
}

func (r *ResultRepository) DeleteByTrivia(ctx context.Context, triviaID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"trivia_id": triviaID})
	return err
}
