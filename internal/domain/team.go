package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team is an invitation target entity.
type Team struct {
	TeamID    uuid.UUID      `gorm:"column:team_id;type:uuid;primaryKey" json:"team_id"`
	ClubID    *uuid.UUID     `gorm:"column:club_id;type:uuid" json:"club_id"`
	TeamName  string         `gorm:"column:team_name;not null" json:"team_name"`
	Sport     string         `gorm:"column:sport;not null" json:"sport"`
	Season    *string        `gorm:"column:season" json:"season"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Team) TableName() string {
	return "Teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.TeamID == uuid.Nil {
		t.TeamID = uuid.New()
	}
	return nil
}
