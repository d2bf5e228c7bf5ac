package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/seo"
)

func setupProjectTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BlogProject{}))
	return db
}

func TestProjectRepositoryRoundTripsJSONColumns(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	project := models.BlogProject{UserID: 1, Keyword: "자동차 정비", Status: models.ProjectStatusKeywordAnalysis}
	require.NoError(t, repo.Create(ctx, &project))
	require.NotZero(t, project.ID)

	project.Subtitles = datatypes.NewJSONSlice([]string{"점검 주기", "비용", "업체 선택", "자가 정비"})
	project.BusinessInfo = datatypes.NewJSONType(models.BusinessInfo{BusinessName: "한빛모터스"})
	project.SEOMetrics = datatypes.NewJSONType(seo.CheckResult{
		Satisfied:  false,
		Violations: []seo.Violation{{Code: seo.CodeLengthShort, Actual: 1200, Min: 1500, Max: 1700}},
	})
	project.Titles = datatypes.NewJSONSlice([]models.ScoredTitle{{Title: "정비소가 숨기는 비밀", Score: 4.5}})
	require.NoError(t, repo.Update(ctx, &project))

	loaded, err := repo.GetForUser(ctx, project.ID, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"점검 주기", "비용", "업체 선택", "자가 정비"}, []string(loaded.Subtitles))
	require.True(t, loaded.HasBusinessInfo())
	require.False(t, loaded.HasResearch())
	require.Equal(t, seo.CodeLengthShort, loaded.SEOMetrics.Data().Violations[0].Code)
	require.Equal(t, 4.5, loaded.Titles[0].Score)
}

func TestProjectRepositoryScopesByOwner(t *testing.T) {
	db := setupProjectTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	mine := models.BlogProject{UserID: 1, Keyword: "a", Status: models.ProjectStatusKeywordAnalysis}
	theirs := models.BlogProject{UserID: 2, Keyword: "b", Status: models.ProjectStatusKeywordAnalysis}
	require.NoError(t, repo.Create(ctx, &mine))
	require.NoError(t, repo.Create(ctx, &theirs))

	_, err := repo.GetForUser(ctx, theirs.ID, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	items, total, err := repo.ListByUser(ctx, 1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, "a", items[0].Keyword)
}
