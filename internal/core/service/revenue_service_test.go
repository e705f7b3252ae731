package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	"github.com/freelancehq/freelance-manager/internal/core/session"
)

func TestRevenueService_CreateAndTotal(t *testing.T) {
	repo := &stubRevenueRepo{}
	svc := NewRevenueService(repo, as(alice), discardLogger)

	for _, amount := range []float64{100, 250.5} {
		if _, err := svc.Create(context.Background(), domain.RevenueInput{Amount: amount, Source: "consulting"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	other := NewRevenueService(repo, as(bob), discardLogger)
	if _, err := other.Create(context.Background(), domain.RevenueInput{Amount: 999}); err != nil {
		t.Fatalf("create: %v", err)
	}

	total, err := svc.Total(context.Background())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 350.5 {
		t.Fatalf("expected 350.5, got %v", total)
	}
}

func TestRevenueService_Validation(t *testing.T) {
	svc := NewRevenueService(&stubRevenueRepo{}, as(alice), discardLogger)

	var ve *domain.ValidationError
	if _, err := svc.Create(context.Background(), domain.RevenueInput{Amount: 0}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRevenueService_Anonymous(t *testing.T) {
	svc := NewRevenueService(&stubRevenueRepo{}, session.Anonymous, discardLogger)

	if total, err := svc.Total(context.Background()); err != nil || total != 0 {
		t.Fatalf("expected 0 and no error, got %v %v", total, err)
	}
	if _, err := svc.Create(context.Background(), domain.RevenueInput{Amount: 10}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
