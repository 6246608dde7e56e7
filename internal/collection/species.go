package collection

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/unicode/norm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// NormalizeSpeciesName trims and collapses whitespace and converts the name
// to Unicode NFC so visually identical names map to one species row.
func NormalizeSpeciesName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// GetOrCreateSpecies returns the species with the given name, creating it
// when absent.
func (s *Service) GetOrCreateSpecies(ctx context.Context, name string) (*entities.Species, error) {
	name = NormalizeSpeciesName(name)
	if name == "" {
		return nil, validationError("species name is required")
	}

	var species *entities.Species
	var created bool
	err := s.unitOfWork(ctx, "species_get_or_create", func(r *repository.Set) error {
		var err error
		species, created, err = r.Species.GetOrCreate(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.invalidateSpecies()
		GetLogger().Info("species created", logger.String("species", name))
	}
	return species, nil
}

// ListSpecies returns every species ordered by name. The list is cached
// until a write that may change it.
func (s *Service) ListSpecies(ctx context.Context) ([]*entities.Species, error) {
	if cached, found := s.species.Get(speciesCacheKey); found {
		if list, ok := cached.([]*entities.Species); ok {
			return copySpecies(list), nil
		}
	}

	start := time.Now()
	list, err := s.read().Species.List(ctx)
	err = s.wrap("species_list", err)
	s.observe("species_list", start, err)
	if err != nil {
		return nil, err
	}

	s.species.Set(speciesCacheKey, list, cache.DefaultExpiration)
	return copySpecies(list), nil
}

// copySpecies copies the cached rows so callers cannot modify the cache.
func copySpecies(list []*entities.Species) []*entities.Species {
	out := make([]*entities.Species, len(list))
	for i, sp := range list {
		c := *sp
		out[i] = &c
	}
	return out
}

// SpeciesNames returns the existing species names for autocompletion.
func (s *Service) SpeciesNames(ctx context.Context) ([]string, error) {
	list, err := s.ListSpecies(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, sp := range list {
		names[i] = sp.Name
	}
	return names, nil
}

// DeleteSpecies removes a species that no tree references.
func (s *Service) DeleteSpecies(ctx context.Context, id uint) error {
	err := s.unitOfWork(ctx, "species_delete", func(r *repository.Set) error {
		species, err := r.Species.GetByID(ctx, id)
		if err != nil {
			return err
		}
		trees, err := r.Species.CountTrees(ctx, id)
		if err != nil {
			return err
		}
		if trees > 0 {
			return conflictError("species %q is used by %d trees", species.Name, trees)
		}
		return r.Species.Delete(ctx, id)
	})
	if err == nil {
		s.invalidateSpecies()
	}
	return err
}

func (s *Service) invalidateSpecies() {
	s.species.Delete(speciesCacheKey)
}
