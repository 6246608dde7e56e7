package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// SettingRepository provides access to the settings singleton row.
type SettingRepository interface {
	// Get returns the settings row.
	// Returns ErrSettingsNotFound if the row was never seeded.
	Get(ctx context.Context) (*entities.AppSetting, error)

	// Save overwrites the settings row.
	Save(ctx context.Context, setting *entities.AppSetting) error
}

// settingsRowID is the primary key of the singleton row.
const settingsRowID = 1

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context) (*entities.AppSetting, error) {
	var setting entities.AppSetting
	err := r.db.WithContext(ctx).First(&setting, settingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) Save(ctx context.Context, setting *entities.AppSetting) error {
	setting.ID = settingsRowID
	if setting.AppTitle == "" {
		setting.AppTitle = entities.DefaultAppTitle
	}
	return r.db.WithContext(ctx).Save(setting).Error
}
