package collection

import (
	"context"
	"time"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// TreeDetail is a tree with its history and derived ages.
type TreeDetail struct {
	Tree        *entities.Tree
	Updates     []*entities.TreeUpdate // newest first
	Photos      []*entities.Photo      // starred first, then newest first
	Reminders   []*entities.Reminder   // by date, completed included
	TrainingAge float64
	TrueAge     float64
}

// GenerateTreeNumber returns the number the next created tree would get.
func (s *Service) GenerateTreeNumber(ctx context.Context) (string, error) {
	s.numberMu.Lock()
	defer s.numberMu.Unlock()

	number, err := nextTreeNumber(ctx, s.read())
	return number, s.wrap("tree_number", err)
}

func nextTreeNumber(ctx context.Context, r *repository.Set) (string, error) {
	count, err := r.Trees.Count(ctx)
	if err != nil {
		return "", err
	}
	issued, err := r.Sequences.Current(ctx, entities.SequenceTreeNumber)
	if err != nil {
		return "", err
	}
	assigned, err := r.Trees.Numbers(ctx)
	if err != nil {
		return "", err
	}
	return nextFreeTreeNumber(count, issued, assigned), nil
}

// CreateTree validates in, resolves its species and inserts the tree under
// a freshly generated number.
func (s *Service) CreateTree(ctx context.Context, in TreeInput) (*entities.Tree, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	s.numberMu.Lock()
	defer s.numberMu.Unlock()

	var tree *entities.Tree
	var speciesCreated bool
	err := s.unitOfWork(ctx, "tree_create", func(r *repository.Set) error {
		taken, err := r.Trees.NameTaken(ctx, in.TreeName, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflictError("a tree named %q already exists", in.TreeName)
		}

		species, created, err := r.Species.GetOrCreate(ctx, in.Species)
		if err != nil {
			return err
		}
		speciesCreated = created

		number, err := nextTreeNumber(ctx, r)
		if err != nil {
			return err
		}
		seq, _ := TreeNumberSequence(number)
		if err := r.Sequences.Raise(ctx, entities.SequenceTreeNumber, seq); err != nil {
			return err
		}

		tree = &entities.Tree{
			TreeNumber:   number,
			TreeName:     in.TreeName,
			SpeciesID:    species.ID,
			DateAcquired: in.DateAcquired,
			OriginDate:   in.OriginDate,
			CurrentGirth: in.CurrentGirth,
			Notes:        in.Notes,
		}
		if err := r.Trees.Create(ctx, tree); err != nil {
			return err
		}
		tree.Species = species
		return nil
	})
	if err != nil {
		return nil, err
	}

	if speciesCreated {
		s.invalidateSpecies()
	}
	GetLogger().Info("tree created", treeFields(tree.ID, tree.TreeNumber)...)
	return tree, nil
}

// GetTree returns a tree with its species.
func (s *Service) GetTree(ctx context.Context, id uint) (*entities.Tree, error) {
	tree, err := s.read().Trees.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("tree_get", err)
	}
	return tree, nil
}

// GetTreeByNumber returns the tree with a "BON-###" number.
func (s *Service) GetTreeByNumber(ctx context.Context, number string) (*entities.Tree, error) {
	tree, err := s.read().Trees.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.wrap("tree_get", err)
	}
	return tree, nil
}

// GetTreeDetail returns a tree with its updates, photos and reminders.
func (s *Service) GetTreeDetail(ctx context.Context, id uint) (*TreeDetail, error) {
	r := s.read()
	tree, err := r.Trees.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("tree_detail", err)
	}

	detail := &TreeDetail{Tree: tree}
	if detail.Updates, err = r.Updates.ListByTree(ctx, id); err != nil {
		return nil, s.wrap("tree_detail", err)
	}
	if detail.Photos, err = r.Photos.ListByTree(ctx, id); err != nil {
		return nil, s.wrap("tree_detail", err)
	}
	filter := repository.ReminderFilter{TreeID: id, IncludeCompleted: true}
	if detail.Reminders, err = r.Reminders.List(ctx, filter); err != nil {
		return nil, s.wrap("tree_detail", err)
	}

	now := s.now()
	detail.TrainingAge = TrainingAge(tree, now)
	detail.TrueAge = TrueAge(tree, now)
	return detail, nil
}

// ListTrees returns trees matching filter ordered by tree number.
func (s *Service) ListTrees(ctx context.Context, filter TreeFilter) ([]*entities.Tree, error) {
	start := time.Now()
	trees, err := s.read().Trees.List(ctx, filter)
	err = s.wrap("tree_list", err)
	s.observe("tree_list", start, err)
	return trees, err
}

// UpdateTree overwrites the editable fields of a tree.
func (s *Service) UpdateTree(ctx context.Context, id uint, in TreeInput) (*entities.Tree, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	var tree *entities.Tree
	var speciesCreated bool
	err := s.unitOfWork(ctx, "tree_update", func(r *repository.Set) error {
		var err error
		if tree, err = r.Trees.GetByID(ctx, id); err != nil {
			return err
		}

		taken, err := r.Trees.NameTaken(ctx, in.TreeName, id)
		if err != nil {
			return err
		}
		if taken {
			return conflictError("a tree named %q already exists", in.TreeName)
		}

		species, created, err := r.Species.GetOrCreate(ctx, in.Species)
		if err != nil {
			return err
		}
		speciesCreated = created

		tree.TreeName = in.TreeName
		tree.SpeciesID = species.ID
		tree.Species = species
		tree.DateAcquired = in.DateAcquired
		tree.OriginDate = in.OriginDate
		tree.CurrentGirth = in.CurrentGirth
		tree.Notes = in.Notes
		return r.Trees.Update(ctx, tree)
	})
	if err != nil {
		return nil, err
	}

	if speciesCreated {
		s.invalidateSpecies()
	}
	GetLogger().Info("tree updated", treeFields(tree.ID, tree.TreeNumber)...)
	return tree, nil
}

// SetArchived moves a tree to or from the graveyard.
func (s *Service) SetArchived(ctx context.Context, id uint, archived bool) error {
	err := s.unitOfWork(ctx, "tree_archive", func(r *repository.Set) error {
		return r.Trees.SetArchived(ctx, id, archived)
	})
	if err == nil {
		GetLogger().Info("tree archive flag changed",
			logger.Uint("tree_id", id),
			logger.Bool("archived", archived))
	}
	return err
}

// DeleteTree removes a tree with its updates, photos and reminders, then
// deletes the photo files.
func (s *Service) DeleteTree(ctx context.Context, id uint) error {
	var tree *entities.Tree
	var paths []string
	err := s.unitOfWork(ctx, "tree_delete", func(r *repository.Set) error {
		var err error
		if tree, err = r.Trees.GetByID(ctx, id); err != nil {
			return err
		}
		photos, err := r.Photos.ListByTree(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range photos {
			paths = append(paths, p.FilePath)
		}
		return r.Trees.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	removed := s.images.RemoveAll(paths)
	GetLogger().Info("tree deleted",
		append(treeFields(tree.ID, tree.TreeNumber),
			logger.Int("photos", len(paths)),
			logger.Int("files_removed", removed))...)
	return nil
}
