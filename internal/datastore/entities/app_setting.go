package entities

// DefaultAppTitle is the title used until the user picks one.
const DefaultAppTitle = "Bonsai Tracker"

// AppSetting is a singleton row of user-editable application settings.
type AppSetting struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	AppTitle     string `gorm:"size:100;not null;default:Bonsai Tracker" json:"app_title"`
	SidebarImage string `gorm:"size:255" json:"sidebar_image,omitempty"`
}

// TableName returns the table name for GORM.
func (AppSetting) TableName() string {
	return "settings"
}

// All returns every entity model in dependency order for migrations.
func All() []any {
	return []any{
		&Species{},
		&Tree{},
		&TreeUpdate{},
		&Photo{},
		&Reminder{},
		&AppSetting{},
		&Sequence{},
	}
}
