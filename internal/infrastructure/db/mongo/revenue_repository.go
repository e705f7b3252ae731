package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
)

const collectionRevenue = "revenue"

type RevenueRepository struct {
	col *mongo.Collection
}

func NewRevenueRepository(db *mongo.Database) *RevenueRepository {
	return &RevenueRepository{col: db.Collection(collectionRevenue)}
}

type revenueWrite struct {
	UserID     string     `bson:"userId"`
	Amount     float64    `bson:"amount"`
	Source     string     `bson:"source"`
	Note       string     `bson:"note"`
	ReceivedAt *time.Time `bson:"receivedAt"`
}

type revenueRead struct {
	ID         string        `bson:"_id"`
	UserID     string        `bson:"userId"`
	Amount     bson.RawValue `bson:"amount"`
	Source     string        `bson:"source"`
	Note       string        `bson:"note"`
	ReceivedAt bson.RawValue `bson:"receivedAt"`
	CreatedAt  bson.RawValue `bson:"createdAt"`
}

func (r *RevenueRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.RevenueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find revenue: %w", err)
	}
	defer cur.Close(ctx)

	var docs []revenueRead
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode revenue: %w", err)
	}

	entries := make([]*domain.RevenueEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, &domain.RevenueEntry{
			ID:         d.ID,
			UserID:     d.UserID,
			Amount:     rawNumber(d.Amount),
			Source:     d.Source,
			Note:       d.Note,
			ReceivedAt: rawTime(d.ReceivedAt),
			CreatedAt:  rawTime(d.CreatedAt),
		})
	}
	return entries, nil
}

func (r *RevenueRepository) Create(ctx context.Context, e *domain.RevenueEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := newID()
	doc := revenueWrite{
		UserID:     e.UserID,
		Amount:     e.Amount,
		Source:     e.Source,
		Note:       e.Note,
		ReceivedAt: e.ReceivedAt,
	}
	if err := insertStamped(ctx, r.col, id, doc); err != nil {
		return "", fmt.Errorf("insert revenue: %w", err)
	}
	return id, nil
}

func (r *RevenueRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}})
	return err
}
