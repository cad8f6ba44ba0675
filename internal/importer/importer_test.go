package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtures = map[string]string{
	"category.csv": "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	"genre.csv":    "id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	"titles.csv":   "id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Безымянное,2001,\n",
	"users.csv": "id,username,email,role,bio,first_name,last_name\n" +
		"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
		"101,capt_obvious,capt_obvious@yamdb.fake,admin,\"bio, with comma\",Capt,Obvious\n",
	"review.csv": "id,title_id,text,author,score,pub_date\n" +
		"1,1,Ну такое,100,4,2019-09-24T21:08:21.567Z\n" +
		"2,1,Шедевр,101,8,2019-09-24T21:08:21.567Z\n",
	"comments.csv":    "id,review_id,text,author,pub_date\n1,1,Согласен,101,2019-09-24T21:08:21.567Z\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,1,2\n",
}

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDir_ImportsFixtureSet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	db := testDB.DB

	stats, err := New(db).LoadDir(context.Background(), writeFixtures(t, fixtures))
	require.NoError(t, err)
	assert.Equal(t, 2, stats["titles.csv"])
	assert.Equal(t, 2, stats["review.csv"])

	var title models.Title
	require.NoError(t, db.Preload("GenreLinks").First(&title, 1).Error)
	require.NotNil(t, title.CategoryID)
	assert.Equal(t, uint(1), *title.CategoryID)
	assert.Len(t, title.GenreLinks, 2)

	var orphan models.Title
	require.NoError(t, db.First(&orphan, 2).Error)
	assert.Nil(t, orphan.CategoryID)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "capt_obvious").First(&admin).Error)
	assert.Equal(t, UserID("101"), admin.ID)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "bio, with comma", admin.Bio)

	var review models.Review
	require.NoError(t, db.First(&review, 1).Error)
	assert.Equal(t, UserID("100"), review.AuthorID)
	assert.Equal(t, 2019, review.PubDate.Year())
}

func TestLoadDir_IsIdempotent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	dir := writeFixtures(t, fixtures)
	im := New(testDB.DB)

	_, err := im.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	_, err = im.LoadDir(context.Background(), dir)
	require.NoError(t, err)

	var count int64
	require.NoError(t, testDB.DB.Model(&models.Review{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestLoadDir_ReportsBadRows(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	files := map[string]string{}
	for k, v := range fixtures {
		files[k] = v
	}
	files["titles.csv"] = "id,name,year,category\n1,Broken,not-a-year,\n"

	_, err := New(testDB.DB).LoadDir(context.Background(), writeFixtures(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titles.csv:2")
}

func TestLoadDir_MissingFile(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	_, err := New(testDB.DB).LoadDir(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category.csv")
}

func TestFiles_Order(t *testing.T) {
	assert.Equal(t, []string{
		"category.csv", "genre.csv", "titles.csv", "users.csv",
		"review.csv", "comments.csv", "genre_title.csv",
	}, Files())
}

func TestUserID_Stable(t *testing.T) {
	assert.Equal(t, UserID("7"), UserID("7"))
	assert.NotEqual(t, UserID("7"), UserID("8"))
}
