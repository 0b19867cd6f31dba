package users

import "time"

// User is the local record for one provider subject. The id is the subject
// identifier assigned by the identity provider and never changes after the
// first reconciliation. Display attributes are pointers so that a claim the
// provider omitted clears the stored value instead of being skipped.
type User struct {
	ID              string    `gorm:"column:id;primaryKey;size:190;not null"`
	Email           *string   `gorm:"column:email;size:320"`
	FirstName       *string   `gorm:"column:first_name;size:190"`
	LastName        *string   `gorm:"column:last_name;size:190"`
	ProfileImageURL *string   `gorm:"column:profile_image_url;size:512"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName exposes the table backing user records.
func (User) TableName() string {
	return "users"
}
