package domain

import (
	"strings"
	"time"
)

// RevenueEntry is income recorded outside of a project's revenue figure.
type RevenueEntry struct {
	ID         string
	UserID     string
	Amount     float64
	Source     string
	Note       string
	ReceivedAt *time.Time
	CreatedAt  *time.Time
}

type RevenueInput struct {
	Amount     float64 `json:"amount"     validate:"gt=0"`
	Source     string  `json:"source"`
	Note       string  `json:"note"`
	ReceivedAt string  `json:"receivedAt"`
}

func (in RevenueInput) Build(userID string) (*RevenueEntry, error) {
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	received, err := ParseDate("receivedAt", in.ReceivedAt)
	if err != nil {
		return nil, err
	}
	return &RevenueEntry{
		UserID:     userID,
		Amount:     in.Amount,
		Source:     strings.TrimSpace(in.Source),
		Note:       in.Note,
		ReceivedAt: received,
	}, nil
}
