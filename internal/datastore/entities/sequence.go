package entities

// SequenceTreeNumber names the counter behind "BON-###" tree numbers.
const SequenceTreeNumber = "tree_number"

// Sequence is a named high-water mark. Values only grow, so numbers handed
// out once are never issued again after their rows are deleted.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:50" json:"name"`
	Value int64  `gorm:"not null;default:0" json:"value"`
}

// TableName returns the table name for GORM.
func (Sequence) TableName() string {
	return "sequences"
}
