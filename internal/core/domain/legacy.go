package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// LegacyProjectsKey is the local storage key the pre-account version of the
// app kept its projects under.
const LegacyProjectsKey = "freelance_projects"

// LegacyAmount accepts both JSON numbers and numeric strings; older form
// builds stored revenue straight from the input element.
type LegacyAmount float64

func (a *LegacyAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = LegacyAmount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = LegacyAmount(f)
	return nil
}

// LegacyStorageKey is where one identity's legacy data is staged: the
// browser's local storage belonged to a single user, so every copy on the
// server is scoped to the identity it will be migrated into.
func LegacyStorageKey(userID, key string) string {
	return userID + ":" + key
}

// LegacyProject is one element of the JSON array stored under
// LegacyProjectsKey.
type LegacyProject struct {
	ID                string       `json:"id,omitempty"`
	Title             string       `json:"title"`
	Client            string       `json:"client"`
	Description       string       `json:"description"`
	Status            string       `json:"status"`
	ProjectURL        string       `json:"projectURL"`
	Revenue           LegacyAmount `json:"revenue"`
	ProjectStartedAt  string       `json:"projectStartedAt,omitempty"`
	DueDate           string       `json:"dueDate,omitempty"`
	AssignedEmployees []string     `json:"assignedEmployees,omitempty"`
	CreatedAt         string       `json:"createdAt,omitempty"`
}

// ParseLegacyProjects decodes the local storage payload.
func ParseLegacyProjects(raw string) ([]LegacyProject, error) {
	var out []LegacyProject
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Fingerprint identifies a legacy record across migration attempts: its own id
// when it has one, otherwise a digest of its content.
func (l LegacyProject) Fingerprint() string {
	if id := strings.TrimSpace(l.ID); id != "" {
		return "id:" + id
	}
	b, _ := json.Marshal(l)
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ToProject converts the record for the given owner. Unreadable dates and
// statuses fall back to their defaults instead of failing the migration.
func (l LegacyProject) ToProject(userID string, now time.Time) (*Project, time.Time) {
	status, err := ParseProjectStatus(l.Status)
	if err != nil {
		status = StatusNotStarted
	}
	started, _ := ParseDate("projectStartedAt", l.ProjectStartedAt)
	due, _ := ParseDate("dueDate", l.DueDate)

	created := now.UTC()
	if t, err := ParseDate("createdAt", l.CreatedAt); err == nil && t != nil {
		created = *t
	}

	p := &Project{
		UserID:            userID,
		Title:             l.Title,
		Client:            l.Client,
		Description:       l.Description,
		Status:            status,
		ProjectURL:        l.ProjectURL,
		Revenue:           float64(l.Revenue),
		ProjectStartedAt:  started,
		DueDate:           due,
		AssignedEmployees: UniqueIDs(l.AssignedEmployees),
	}
	p.Normalize()
	return p, created
}

// MigrationStatus reports the outcome of a migration run.
type MigrationStatus struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}
