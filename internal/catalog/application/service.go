package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanakrit-dev/charity-storefront/internal/catalog/domain"
)

type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	current, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product updated", "product_id", p.ID)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns active products for the storefront; includeInactive is the
// admin view.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.List(ctx, includeInactive)
}
