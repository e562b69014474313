package models

import "gorm.io/gorm"

// Client represents a customer of the store.
// Deleting a client does not touch orders that reference it; orders keep a
// dangling client_id in that case.
type Client struct {
	ID               string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name             string `json:"name" gorm:"type:varchar(150)" validate:"required,min=2,max=150"`
	Email            string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Gender           string `json:"gender" gorm:"type:varchar(10)" validate:"required,oneof=male female other"`
	PreferredChannel string `json:"preferred_channel,omitempty" gorm:"type:varchar(10)" validate:"omitempty,oneof=web store"`
	gorm.Model       // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
