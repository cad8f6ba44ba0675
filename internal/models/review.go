package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_author_title"`
	Author   *User     `gorm:"constraint:OnDelete:CASCADE"`
	TitleID  uint      `gorm:"not null;index;uniqueIndex:idx_reviews_author_title"`
	Title    *Title    `gorm:"constraint:OnDelete:CASCADE"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	Text     string    `gorm:"type:text;not null"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Author   *User     `gorm:"constraint:OnDelete:CASCADE"`
	ReviewID uint      `gorm:"not null;index"`
	Review   *Review   `gorm:"constraint:OnDelete:CASCADE"`
	PubDate  time.Time `gorm:"autoCreateTime;index"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Genre{},
		&Title{},
		&TitleGenre{},
		&Review{},
		&Comment{},
	}
}
