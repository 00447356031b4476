package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), common.DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, repo TemplateRepository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewTemplateRepository(NewMemoryStore(), nil))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewTemplateRepository(NewSQLStore(openSQLite(t), nil), nil))
	})
}

func sampleTemplate(name string) *entity.Template {
	return &entity.Template{
		Name:         name,
		DocumentType: "receipt",
		Fields: []entity.Field{
			{Name: "Merchant", Type: constants.FieldTypeText, Enabled: true},
			{Name: "Total Paid", Type: constants.FieldTypeCurrency, Required: true, Enabled: false},
		},
	}
}

func TestListStartsWithDefault(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, entity.DefaultTemplateID, list[0].ID)

		_, err = repo.Save(ctx, sampleTemplate("Receipts"))
		require.NoError(t, err)
		list, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, entity.DefaultTemplateID, list[0].ID)
		assert.Equal(t, "Receipts", list[1].Name)
	})
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		saved, err := repo.Save(ctx, sampleTemplate("  Receipts "))
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)
		assert.Equal(t, "Receipts", saved.Name)
		assert.Equal(t, "merchant", saved.Fields[0].Key)
		assert.Equal(t, "totalPaid", saved.Fields[1].Key)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.Name, got.Name)
		assert.Equal(t, saved.Fields, got.Fields)
		assert.False(t, got.Fields[1].Enabled, "disabled fields are retained")
		assert.True(t, got.CreatedAt.Equal(saved.CreatedAt))

		// last write wins, creation time kept
		got.Name = "Receipts v2"
		got.CreatedAt = time.Time{}
		updated, err := repo.Save(ctx, got)
		require.NoError(t, err)
		assert.True(t, updated.CreatedAt.Equal(saved.CreatedAt))
		again, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Receipts v2", again.Name)
	})
}

func TestSaveRejectsInvalidTemplate(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		tpl := sampleTemplate("Dupes")
		tpl.Fields[0].Key = "same"
		tpl.Fields[1].Key = "same"
		_, err := repo.Save(context.Background(), tpl)
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestDefaultTemplateIsReadOnly(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		_, err := repo.Save(ctx, entity.DefaultTemplate())
		assert.ErrorIs(t, err, common.ErrForbidden)
		assert.ErrorIs(t, repo.Delete(ctx, entity.DefaultTemplateID), common.ErrForbidden)

		got, err := repo.Get(ctx, entity.DefaultTemplateID)
		require.NoError(t, err)
		assert.Equal(t, "Standard Invoice", got.Name)
	})
}

func TestGetAndDeleteMissing(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "nope"), common.ErrNotFound)
		assert.ErrorIs(t, repo.SetActiveID(ctx, "nope"), common.ErrNotFound)
	})
}

func TestActiveTemplate(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		id, err := repo.GetActiveID(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultTemplateID, id)

		saved, err := repo.Save(ctx, sampleTemplate("Receipts"))
		require.NoError(t, err)
		require.NoError(t, repo.SetActiveID(ctx, saved.ID))
		id, err = repo.GetActiveID(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, id)

		require.NoError(t, repo.Delete(ctx, saved.ID))
		id, err = repo.GetActiveID(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.DefaultTemplateID, id, "deleting the active template falls back to default")
	})
}

func TestInstructions(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		require.NoError(t, repo.SetInstructions(ctx, entity.DefaultTemplateID, map[string]string{"invoiceNo": "Printed top right"}))
		got, err := repo.Get(ctx, entity.DefaultTemplateID)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"invoiceNo": "Printed top right"}, got.Instructions)

		err = repo.SetInstructions(ctx, entity.DefaultTemplateID, map[string]string{"bogus": "x"})
		assert.ErrorIs(t, err, common.ErrValidation)

		require.NoError(t, repo.SetInstructions(ctx, entity.DefaultTemplateID, nil))
		got, err = repo.Get(ctx, entity.DefaultTemplateID)
		require.NoError(t, err)
		assert.Empty(t, got.Instructions)

		tpl := sampleTemplate("Receipts")
		tpl.Instructions = map[string]string{"merchant": "Shop name in the header"}
		saved, err := repo.Save(ctx, tpl)
		require.NoError(t, err)
		got, err = repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, tpl.Instructions, got.Instructions)
	})
}

func TestPromptHistoryKeepsNewest(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		total := constants.PromptHistoryLimit + 5
		for i := range total {
			require.NoError(t, repo.SavePromptVersion(ctx, entity.PromptVersion{
				TemplateID: "tpl",
				Version:    fmt.Sprintf("v%02d", i),
				Prompt:     "prompt {{document_text}}",
				FieldCount: 2,
				CreatedAt:  time.UnixMilli(int64(1_700_000_000_000 + i)).UTC(),
			}))
		}
		require.NoError(t, repo.SavePromptVersion(ctx, entity.PromptVersion{TemplateID: "other", Version: "x"}))

		history, err := repo.ListPromptVersions(ctx, "tpl")
		require.NoError(t, err)
		require.Len(t, history, constants.PromptHistoryLimit)
		assert.Equal(t, "v05", history[0].Version)
		assert.Equal(t, fmt.Sprintf("v%02d", total-1), history[len(history)-1].Version)
		assert.Equal(t, 2, history[0].FieldCount)

		other, err := repo.ListPromptVersions(ctx, "other")
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.False(t, other[0].CreatedAt.IsZero())
	})
}

func TestPromptHistorySkipsRepeatedVersion(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		save := func(version string) {
			require.NoError(t, repo.SavePromptVersion(ctx, entity.PromptVersion{TemplateID: "tpl", Version: version, Prompt: "p"}))
		}
		for range constants.PromptHistoryLimit + 5 {
			save("v-a")
		}
		history, err := repo.ListPromptVersions(ctx, "tpl")
		require.NoError(t, err)
		require.Len(t, history, 1)

		save("v-b")
		save("v-b")
		save("v-a")
		history, err = repo.ListPromptVersions(ctx, "tpl")
		require.NoError(t, err)
		versions := make([]string, len(history))
		for i, v := range history {
			versions[i] = v.Version
		}
		assert.Equal(t, []string{"v-a", "v-b", "v-a"}, versions)
	})
}

func TestDeleteRemovesHistory(t *testing.T) {
	stores(t, func(t *testing.T, repo TemplateRepository) {
		ctx := context.Background()
		saved, err := repo.Save(ctx, sampleTemplate("Receipts"))
		require.NoError(t, err)
		require.NoError(t, repo.SavePromptVersion(ctx, entity.PromptVersion{TemplateID: saved.ID, Version: "v1"}))

		require.NoError(t, repo.Delete(ctx, saved.ID))
		history, err := repo.ListPromptVersions(ctx, saved.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "oracle"}, nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestHealthCheck(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, db.HealthCheck(context.Background(), time.Second))
}
