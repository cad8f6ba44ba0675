// Package importer loads the CSV fixture set into the database with
// get-or-create semantics keyed by the CSV id column.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// userNamespace derives stable user UUIDs from the integer ids used in users.csv.
var userNamespace = uuid.MustParse("6f1c2c1e-58a4-4d3e-9d0b-2a9b8f1e7c31")

// UserID maps a users.csv id onto the UUID the importer stores it under.
func UserID(csvID string) uuid.UUID {
	return uuid.NewSHA1(userNamespace, []byte("user:"+csvID))
}

// Stats counts processed rows per file.
type Stats map[string]int

type rowFunc func(row []string) error

type step struct {
	file    string
	columns int
	load    rowFunc
}

type Importer struct {
	db         *gorm.DB
	categories *repository.CategoryRepository
	genres     *repository.GenreRepository
	titles     *repository.TitleRepository
	users      *repository.UserRepository
	reviews    *repository.ReviewRepository
	comments   *repository.CommentRepository
}

func New(db *gorm.DB) *Importer {
	return &Importer{
		db:         db,
		categories: repository.NewCategoryRepository(db),
		genres:     repository.NewGenreRepository(db),
		titles:     repository.NewTitleRepository(db),
		users:      repository.NewUserRepository(db),
		reviews:    repository.NewReviewRepository(db),
		comments:   repository.NewCommentRepository(db),
	}
}

// Files lists the fixture files in load order; later files reference earlier ones.
func Files() []string {
	steps := (&Importer{}).steps()
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.file)
	}
	return out
}

func (im *Importer) steps() []step {
	return []step{
		{"category.csv", 3, im.category},
		{"genre.csv", 3, im.genre},
		{"titles.csv", 4, im.title},
		{"users.csv", 7, im.user},
		{"review.csv", 6, im.review},
		{"comments.csv", 5, im.comment},
		{"genre_title.csv", 3, im.genreTitle},
	}
}

// LoadDir imports every fixture file from dir. Rows already present by id are left untouched.
func (im *Importer) LoadDir(ctx context.Context, dir string) (Stats, error) {
	start := time.Now()
	stats := make(Stats)

	for _, s := range im.steps() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		path := filepath.Join(dir, s.file)
		n, err := loadFile(path, s.columns, s.load)
		if err != nil {
			logger.Log.Error("Fixture import failed", zap.String("file", path), zap.Error(err))
			return stats, err
		}
		stats[s.file] = n

		logger.Log.Info("Fixture file imported", zap.String("file", s.file), zap.Int("rows", n))
	}

	if err := im.resetSequences(); err != nil {
		return stats, err
	}

	logger.Log.Info("Fixture import completed", zap.Duration("duration", time.Since(start)))
	return stats, nil
}

func loadFile(path string, columns int, load rowFunc) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: read header: %w", filepath.Base(path), err)
	}

	count := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if len(row) < columns {
			return count, fmt.Errorf("%s:%d: expected %d columns, got %d", filepath.Base(path), line, columns, len(row))
		}
		if err := load(row); err != nil {
			return count, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		count++
	}
}

func (im *Importer) category(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	return im.categories.FirstOrCreate(&models.Category{ID: id, Name: row[1], Slug: row[2]})
}

func (im *Importer) genre(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	return im.genres.FirstOrCreate(&models.Genre{ID: id, Name: row[1], Slug: row[2]})
}

func (im *Importer) title(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	year, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return fmt.Errorf("invalid year %q", row[2])
	}

	title := &models.Title{ID: id, Name: row[1], Year: year}
	if strings.TrimSpace(row[3]) != "" {
		categoryID, err := parseID(row[3])
		if err != nil {
			return err
		}
		title.CategoryID = &categoryID
	}
	return im.titles.FirstOrCreate(title)
}

func (im *Importer) user(row []string) error {
	role := models.Role(strings.TrimSpace(row[3]))
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", row[3])
	}

	return im.users.FirstOrCreateUser(&models.User{
		ID:        UserID(row[0]),
		Username:  row[1],
		Email:     row[2],
		Role:      role,
		Bio:       row[4],
		FirstName: row[5],
		LastName:  row[6],
	})
}

func (im *Importer) review(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	titleID, err := parseID(row[1])
	if err != nil {
		return err
	}
	score, err := strconv.Atoi(strings.TrimSpace(row[4]))
	if err != nil || score < models.MinScore || score > models.MaxScore {
		return fmt.Errorf("invalid score %q", row[4])
	}
	pubDate, err := parseTime(row[5])
	if err != nil {
		return err
	}

	return im.reviews.FirstOrCreate(&models.Review{
		ID:       id,
		TitleID:  titleID,
		Text:     row[2],
		AuthorID: UserID(row[3]),
		Score:    score,
		PubDate:  pubDate,
	})
}

func (im *Importer) comment(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	reviewID, err := parseID(row[1])
	if err != nil {
		return err
	}
	pubDate, err := parseTime(row[4])
	if err != nil {
		return err
	}

	return im.comments.FirstOrCreate(&models.Comment{
		ID:       id,
		ReviewID: reviewID,
		Text:     row[2],
		AuthorID: UserID(row[3]),
		PubDate:  pubDate,
	})
}

func (im *Importer) genreTitle(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	titleID, err := parseID(row[1])
	if err != nil {
		return err
	}
	genreID, err := parseID(row[2])
	if err != nil {
		return err
	}
	return im.titles.FirstOrCreateLink(&models.TitleGenre{ID: id, TitleID: titleID, GenreID: &genreID})
}

// resetSequences moves PostgreSQL serial sequences past the imported ids.
func (im *Importer) resetSequences() error {
	if im.db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"categories", "genres", "titles", "title_genres", "reviews", "comments"} {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table,
		)
		if err := im.db.Exec(query).Error; err != nil {
			return fmt.Errorf("reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
