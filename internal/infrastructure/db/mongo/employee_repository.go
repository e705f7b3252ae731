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

const collectionEmployees = "employees"

type EmployeeRepository struct {
	col *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{col: db.Collection(collectionEmployees)}
}

type employeeWrite struct {
	UserID string `bson:"userId"`
	Name   string `bson:"name"`
	Email  string `bson:"email"`
	Phone  string `bson:"phone"`
	Role   string `bson:"role"`
}

type employeeRead struct {
	ID        string        `bson:"_id"`
	UserID    string        `bson:"userId"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Phone     string        `bson:"phone"`
	Role      string        `bson:"role"`
	CreatedAt bson.RawValue `bson:"createdAt"`
	UpdatedAt bson.RawValue `bson:"updatedAt"`
}

func (r *EmployeeRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find employees: %w", err)
	}
	defer cur.Close(ctx)

	employees := []*domain.Employee{}
	for cur.Next(ctx) {
		var d employeeRead
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		employees = append(employees, &domain.Employee{
			ID:        d.ID,
			UserID:    d.UserID,
			Name:      d.Name,
			Email:     d.Email,
			Phone:     d.Phone,
			Role:      d.Role,
			CreatedAt: rawTime(d.CreatedAt),
			UpdatedAt: rawTime(d.UpdatedAt),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := newID()
	doc := employeeWrite{UserID: e.UserID, Name: e.Name, Email: e.Email, Phone: e.Phone, Role: e.Role}
	if err := insertStamped(ctx, r.col, id, doc); err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}
	return id, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, userID, id string, u domain.EmployeeUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.Phone != nil {
		set["phone"] = *u.Phone
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	update := bson.M{"$currentDate": bson.M{"updatedAt": true}}
	if len(set) > 0 {
		update["$set"] = set
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, update)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID}); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}},
	})
	return err
}
