package models

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null;index" json:"name"`
	Year        int       `gorm:"not null;index" json:"year"`
	Description *string   `gorm:"type:text" json:"description"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category"`
	// GenreLinks is the title_genres join; a link whose genre was deleted keeps a nil GenreID.
	GenreLinks []TitleGenre `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE" json:"-"`
}

// Genres returns the genres still attached to the title, skipping dangling links.
func (t *Title) Genres() []Genre {
	genres := make([]Genre, 0, len(t.GenreLinks))
	for _, link := range t.GenreLinks {
		if link.Genre != nil {
			genres = append(genres, *link.Genre)
		}
	}
	return genres
}

type TitleGenre struct {
	ID      uint   `gorm:"primaryKey"`
	TitleID uint   `gorm:"not null;index"`
	GenreID *uint  `gorm:"index"`
	Genre   *Genre `gorm:"constraint:OnDelete:SET NULL"`
}
