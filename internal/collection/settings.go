package collection

import (
	"context"
	"strings"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/datastore/repository"
)

// Settings returns the application settings row.
func (s *Service) Settings(ctx context.Context) (*entities.AppSetting, error) {
	setting, err := s.read().Settings.Get(ctx)
	if err != nil {
		return nil, s.wrap("settings_get", err)
	}
	return setting, nil
}

// SaveSettings overwrites the application settings row. An empty title
// restores the default.
func (s *Service) SaveSettings(ctx context.Context, setting *entities.AppSetting) error {
	setting.AppTitle = strings.TrimSpace(setting.AppTitle)
	if len(setting.AppTitle) > 100 {
		return validationError("app title must not exceed 100 characters")
	}
	return s.unitOfWork(ctx, "settings_save", func(r *repository.Set) error {
		return r.Settings.Save(ctx, setting)
	})
}
