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

const collectionProjects = "projects"

type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(collectionProjects)}
}

// projectWrite is the stored shape. completed is persisted for queries and
// always derived from status.
type projectWrite struct {
	ID                string     `bson:"_id,omitempty"`
	UserID            string     `bson:"userId"`
	Title             string     `bson:"title"`
	Client            string     `bson:"client"`
	Description       string     `bson:"description"`
	Status            string     `bson:"status"`
	Completed         bool       `bson:"completed"`
	ProjectURL        string     `bson:"projectURL"`
	Revenue           float64    `bson:"revenue"`
	ProjectStartedAt  *time.Time `bson:"projectStartedAt"`
	DueDate           *time.Time `bson:"dueDate"`
	AssignedEmployees []string   `bson:"assignedEmployees"`
	CreatedAt         *time.Time `bson:"createdAt,omitempty"`
}

// projectRead tolerates documents written by other clients: loosely typed
// fields are decoded raw and converted by hand.
type projectRead struct {
	ID                string        `bson:"_id"`
	UserID            string        `bson:"userId"`
	Title             string        `bson:"title"`
	Client            string        `bson:"client"`
	Description       string        `bson:"description"`
	Status            string        `bson:"status"`
	ProjectURL        string        `bson:"projectURL"`
	Revenue           bson.RawValue `bson:"revenue"`
	ProjectStartedAt  bson.RawValue `bson:"projectStartedAt"`
	DueDate           bson.RawValue `bson:"dueDate"`
	AssignedEmployees []string      `bson:"assignedEmployees"`
	CreatedAt         bson.RawValue `bson:"createdAt"`
	UpdatedAt         bson.RawValue `bson:"updatedAt"`
}

func (d projectRead) toDomain() *domain.Project {
	status, err := domain.ParseProjectStatus(d.Status)
	if err != nil {
		status = domain.StatusNotStarted
	}
	p := &domain.Project{
		ID:                d.ID,
		UserID:            d.UserID,
		Title:             d.Title,
		Client:            d.Client,
		Description:       d.Description,
		Status:            status,
		ProjectURL:        d.ProjectURL,
		Revenue:           rawNumber(d.Revenue),
		ProjectStartedAt:  rawTime(d.ProjectStartedAt),
		DueDate:           rawTime(d.DueDate),
		AssignedEmployees: domain.UniqueIDs(d.AssignedEmployees),
		CreatedAt:         rawTime(d.CreatedAt),
		UpdatedAt:         rawTime(d.UpdatedAt),
	}
	p.Normalize()
	return p
}

func newProjectWrite(p *domain.Project) projectWrite {
	employees := p.AssignedEmployees
	if employees == nil {
		employees = []string{}
	}
	return projectWrite{
		UserID:            p.UserID,
		Title:             p.Title,
		Client:            p.Client,
		Description:       p.Description,
		Status:            string(p.Status),
		Completed:         p.Completed(),
		ProjectURL:        p.ProjectURL,
		Revenue:           p.Revenue,
		ProjectStartedAt:  p.ProjectStartedAt,
		DueDate:           p.DueDate,
		AssignedEmployees: employees,
	}
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cur.Close(ctx)

	projects := []*domain.Project{}
	for cur.Next(ctx) {
		var d projectRead
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		projects = append(projects, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// Create inserts p. With a nil createdAt the server clock stamps the
// document; otherwise createdAt is stored as given.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project, createdAt *time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := newID()
	doc := newProjectWrite(p)
	if createdAt != nil {
		doc.ID = id
		doc.CreatedAt = createdAt
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return "", fmt.Errorf("insert project: %w", err)
		}
		return id, nil
	}
	if err := insertStamped(ctx, r.col, id, doc); err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

func (r *ProjectRepository) Update(ctx context.Context, userID, id string, u domain.ProjectUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$currentDate": bson.M{"updatedAt": true}}
	if set := projectSet(u); len(set) > 0 {
		update["$set"] = set
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, update)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// projectSet builds the $set document for u. Cleared dates are written as
// null.
func projectSet(u domain.ProjectUpdate) bson.M {
	set := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Client != nil {
		set["client"] = *u.Client
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	if c := u.Completed(); c != nil {
		set["completed"] = *c
	}
	if u.ProjectURL != nil {
		set["projectURL"] = *u.ProjectURL
	}
	if u.Revenue != nil {
		set["revenue"] = *u.Revenue
	}
	if u.ProjectStartedAt != nil {
		set["projectStartedAt"] = u.ProjectStartedAt.Value
	}
	if u.DueDate != nil {
		set["dueDate"] = u.DueDate.Value
	}
	if u.SetEmployees {
		employees := u.AssignedEmployees
		if employees == nil {
			employees = []string{}
		}
		set["assignedEmployees"] = employees
	}
	return set
}

func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID}); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) CountAssigned(ctx context.Context, userID, employeeID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"userId": userID, "assignedEmployees": employeeID})
	if err != nil {
		return 0, fmt.Errorf("count assigned projects: %w", err)
	}
	return n, nil
}

// UnassignEmployee pulls employeeID from every project of userID and returns
// how many projects changed.
func (r *ProjectRepository) UnassignEmployee(ctx context.Context, userID, employeeID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"userId": userID, "assignedEmployees": employeeID},
		bson.M{
			"$pull":        bson.M{"assignedEmployees": employeeID},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("unassign employee: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates necessary indexes on the projects collection.
func (r *ProjectRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "assignedEmployees", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
