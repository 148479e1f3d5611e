package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Club groups teams under one organization (staff invites target a club).
type Club struct {
	ClubID    uuid.UUID      `gorm:"column:club_id;type:uuid;primaryKey" json:"club_id"`
	ClubName  string         `gorm:"column:club_name;not null;uniqueIndex" json:"club_name"`
	ClubCode  string         `gorm:"column:club_code;type:varchar(10);not null;uniqueIndex" json:"club_code"`
	LogoURL   *string        `gorm:"column:logo_url" json:"logo_url"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Club) TableName() string {
	return "Clubs"
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	if c.ClubID == uuid.Nil {
		c.ClubID = uuid.New()
	}
	return nil
}
