package service

import (
	"context"
	"errors"
	"strings"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
)

// Chemical validation errors.
var (
	ErrChemicalName = errors.New("chemical_name is required")
	ErrFormula      = errors.New("formula is required")
	ErrHazardLevel  = errors.New("hazard_level must be Low, Medium or High")
	ErrInvalidID    = errors.New("id must be positive")
)

type ChemicalService struct {
	repo repository.ChemicalRepo
}

func NewChemicalService(repo repository.ChemicalRepo) *ChemicalService {
	return &ChemicalService{repo: repo}
}

// List returns all chemicals, filtered by a case-insensitive search when set.
func (s *ChemicalService) List(ctx context.Context, search string) ([]models.Chemical, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *ChemicalService) Get(ctx context.Context, id int) (models.Chemical, error) {
	if id <= 0 {
		return models.Chemical{}, ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *ChemicalService) Create(ctx context.Context, in ChemicalInput) (models.Chemical, error) {
	c, err := normalizeChemical(in)
	if err != nil {
		return models.Chemical{}, err
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return models.Chemical{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *ChemicalService) Update(ctx context.Context, id int, in ChemicalInput) (models.Chemical, error) {
	if id <= 0 {
		return models.Chemical{}, ErrInvalidID
	}
	c, err := normalizeChemical(in)
	if err != nil {
		return models.Chemical{}, err
	}
	c.ID = id
	if err := s.repo.Update(ctx, c); err != nil {
		return models.Chemical{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *ChemicalService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

// normalizeChemical trims the input, applies the default hazard level and validates it.
func normalizeChemical(in ChemicalInput) (models.Chemical, error) {
	c := models.Chemical{
		Name:          strings.TrimSpace(in.Name),
		Formula:       strings.TrimSpace(in.Formula),
		BoilingPoint:  in.BoilingPoint,
		FreezingPoint: in.FreezingPoint,
		HazardLevel:   strings.TrimSpace(in.HazardLevel),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if c.Name == "" {
		return models.Chemical{}, ErrChemicalName
	}
	if c.Formula == "" {
		return models.Chemical{}, ErrFormula
	}
	level, ok := hazardLevel(c.HazardLevel)
	if !ok {
		return models.Chemical{}, ErrHazardLevel
	}
	c.HazardLevel = level
	return c, nil
}

// hazardLevel maps user input onto the canonical level names.
func hazardLevel(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "", "low":
		return models.HazardLow, true
	case "medium":
		return models.HazardMedium, true
	case "high":
		return models.HazardHigh, true
	}
	return "", false
}
