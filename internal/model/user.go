package model

// swagger:model User
type User struct {
	SoftDeleteUUIDBase
	Name       string          `gorm:"size:255;not null" json:"name"`
	Email      string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Avatar     string          `gorm:"size:255" json:"avatar"`
	Preference *UserPreference `gorm:"foreignKey:UserID" json:"preferences,omitempty"`
}

func (User) TableName() string {
	return "users"
}
