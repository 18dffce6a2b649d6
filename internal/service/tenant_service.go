package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,98}$`)

type CreateTenantRequest struct {
	Slug string `json:"slug" binding:"required"`
	Name string `json:"name" binding:"required"`
	CNPJ string `json:"cnpj"`
}

type TenantResponse struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	CNPJ      string `json:"cnpj"`
	CreatedAt string `json:"created_at"`
}

type TenantService interface {
	CreateTenant(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error)
	GetBySlug(ctx context.Context, slug string) (*TenantResponse, error)
}

type tenantService struct {
	repo repository.TenantRepository
}

func NewTenantService(repo repository.TenantRepository) TenantService {
	return &tenantService{repo: repo}
}

func (s *tenantService) CreateTenant(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	if !slugPattern.MatchString(req.Slug) {
		return nil, errors.New("slug must be lowercase alphanumeric with hyphens")
	}
	if _, err := s.repo.GetBySlug(ctx, req.Slug); err == nil {
		return nil, errors.New("slug already exists")
	}

	tenant := &model.Tenant{
		Slug: req.Slug,
		Name: req.Name,
		CNPJ: req.CNPJ,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return toTenantResponse(tenant), nil
}

func (s *tenantService) GetBySlug(ctx context.Context, slug string) (*TenantResponse, error) {
	tenant, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, errors.New("tenant not found")
	}
	return toTenantResponse(tenant), nil
}

func toTenantResponse(t *model.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID.String(),
		Slug:      t.Slug,
		Name:      t.Name,
		CNPJ:      t.CNPJ,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}
