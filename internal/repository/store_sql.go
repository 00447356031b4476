package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/docfields/internal/entity"
)

// SQLStore keeps templates as JSON documents in sqlite or postgres, with
// queries built by ent's SQL builder.
type SQLStore struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewSQLStore(db *DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{drv: db.Driver, logger: logger}
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *SQLStore) query(ctx context.Context, q string, args []any, scan func(rows *entsql.Rows) error) error {
	return queryRows(ctx, s.drv, q, args, scan)
}

// queryRows runs q on a driver or transaction and calls scan per row.
func queryRows(ctx context.Context, eq dialect.ExecQuerier, q string, args []any, scan func(rows *entsql.Rows) error) error {
	var rows entsql.Rows
	if err := eq.Query(ctx, q, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) exec(ctx context.Context, q string, args []any) (int64, error) {
	var res sql.Result
	if err := s.drv.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) GetTemplate(ctx context.Context, id string) (*entity.Template, bool, error) {
	q, args := s.builder().
		Select("body").
		From(entsql.Table(tableTemplates)).
		Where(entsql.EQ("id", id)).
		Query()

	var tpl *entity.Template
	err := s.query(ctx, q, args, func(rows *entsql.Rows) error {
		var body string
		if err := rows.Scan(&body); err != nil {
			return err
		}
		tpl = &entity.Template{}
		return json.Unmarshal([]byte(body), tpl)
	})
	if err != nil {
		s.logger.Error("failed to get template", "template_id", id, "error", err)
		return nil, false, fmt.Errorf("get template %q: %w", id, err)
	}
	return tpl, tpl != nil, nil
}

func (s *SQLStore) ListTemplates(ctx context.Context) ([]*entity.Template, error) {
	q, args := s.builder().
		Select("body").
		From(entsql.Table(tableTemplates)).
		OrderBy("created_at", "id").
		Query()

	var out []*entity.Template
	err := s.query(ctx, q, args, func(rows *entsql.Rows) error {
		var body string
		if err := rows.Scan(&body); err != nil {
			return err
		}
		tpl := &entity.Template{}
		if err := json.Unmarshal([]byte(body), tpl); err != nil {
			return err
		}
		out = append(out, tpl)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to list templates", "error", err)
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *SQLStore) PutTemplate(ctx context.Context, tpl *entity.Template) error {
	body, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	q, args := s.builder().
		Insert(tableTemplates).
		Columns("id", "name", "document_type", "body", "created_at", "updated_at").
		Values(tpl.ID, tpl.Name, tpl.DocumentType, string(body), tpl.CreatedAt.UnixMilli(), tpl.UpdatedAt.UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		s.logger.Error("failed to save template", "template_id", tpl.ID, "error", err)
		return fmt.Errorf("save template %q: %w", tpl.ID, err)
	}
	return nil
}

// DeleteTemplate removes the template with its instructions and prompt history.
func (s *SQLStore) DeleteTemplate(ctx context.Context, id string) (bool, error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return false, err
	}
	var deleted int64
	for _, del := range []struct{ table, column string }{
		{tableTemplates, "id"},
		{tableInstructions, "template_id"},
		{tablePromptVersions, "template_id"},
	} {
		q, args := s.builder().Delete(del.table).Where(entsql.EQ(del.column, id)).Query()
		var res sql.Result
		if err := tx.Exec(ctx, q, args, &res); err != nil {
			_ = tx.Rollback()
			s.logger.Error("failed to delete template", "template_id", id, "table", del.table, "error", err)
			return false, fmt.Errorf("delete template %q: %w", id, err)
		}
		if del.table == tableTemplates {
			deleted, _ = res.RowsAffected()
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete template %q: %w", id, err)
	}
	return deleted > 0, nil
}

func (s *SQLStore) GetInstructions(ctx context.Context, templateID string) (map[string]string, error) {
	q, args := s.builder().
		Select("body").
		From(entsql.Table(tableInstructions)).
		Where(entsql.EQ("template_id", templateID)).
		Query()

	var out map[string]string
	err := s.query(ctx, q, args, func(rows *entsql.Rows) error {
		var body string
		if err := rows.Scan(&body); err != nil {
			return err
		}
		return json.Unmarshal([]byte(body), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("get instructions for %q: %w", templateID, err)
	}
	return out, nil
}

func (s *SQLStore) PutInstructions(ctx context.Context, templateID string, instructions map[string]string) error {
	if len(instructions) == 0 {
		q, args := s.builder().Delete(tableInstructions).Where(entsql.EQ("template_id", templateID)).Query()
		_, err := s.exec(ctx, q, args)
		return err
	}
	body, err := json.Marshal(instructions)
	if err != nil {
		return fmt.Errorf("encode instructions: %w", err)
	}
	q, args := s.builder().
		Insert(tableInstructions).
		Columns("template_id", "body").
		Values(templateID, string(body)).
		OnConflict(entsql.ConflictColumns("template_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		s.logger.Error("failed to save instructions", "template_id", templateID, "error", err)
		return fmt.Errorf("save instructions for %q: %w", templateID, err)
	}
	return nil
}

func (s *SQLStore) GetSetting(ctx context.Context, name string) (string, bool, error) {
	q, args := s.builder().
		Select("value").
		From(entsql.Table(tableSettings)).
		Where(entsql.EQ("name", name)).
		Query()

	var (
		value string
		found bool
	)
	err := s.query(ctx, q, args, func(rows *entsql.Rows) error {
		found = true
		return rows.Scan(&value)
	})
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", name, err)
	}
	return value, found, nil
}

func (s *SQLStore) PutSetting(ctx context.Context, name, value string) error {
	q, args := s.builder().
		Insert(tableSettings).
		Columns("name", "value").
		Values(name, value).
		OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("save setting %q: %w", name, err)
	}
	return nil
}

// AppendPromptVersion skips v when the template's newest entry already has
// the same version, so repeated extractions leave a single row.
func (s *SQLStore) AppendPromptVersion(ctx context.Context, v entity.PromptVersion, keep int) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := s.appendPromptVersion(ctx, tx, v, keep); err != nil {
		_ = tx.Rollback()
		s.logger.Error("failed to save prompt version", "template_id", v.TemplateID, "error", err)
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) appendPromptVersion(ctx context.Context, tx dialect.Tx, v entity.PromptVersion, keep int) error {
	q, args := s.builder().
		Select("id", "version").
		From(entsql.Table(tablePromptVersions)).
		Where(entsql.EQ("template_id", v.TemplateID)).
		OrderBy(entsql.Desc("id")).
		Query()
	var (
		ids    []any
		newest string
	)
	err := queryRows(ctx, tx, q, args, func(rows *entsql.Rows) error {
		var (
			id      int64
			version string
		)
		if err := rows.Scan(&id, &version); err != nil {
			return err
		}
		if len(ids) == 0 {
			newest = version
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read prompt history: %w", err)
	}
	if len(ids) > 0 && newest == v.Version {
		return nil
	}

	q, args = s.builder().
		Insert(tablePromptVersions).
		Columns("template_id", "version", "prompt", "field_count", "created_at").
		Values(v.TemplateID, v.Version, v.Prompt, v.FieldCount, v.CreatedAt.UnixMilli()).
		Query()
	var res sql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("save prompt version: %w", err)
	}

	// the new row is newest, so keep-1 of the existing ones survive
	if keep < 1 || len(ids) < keep {
		return nil
	}
	stale := ids[keep-1:]
	q, args = s.builder().Delete(tablePromptVersions).Where(entsql.In("id", stale...)).Query()
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("prune prompt versions: %w", err)
	}
	return nil
}

func (s *SQLStore) ListPromptVersions(ctx context.Context, templateID string) ([]entity.PromptVersion, error) {
	q, args := s.builder().
		Select("template_id", "version", "prompt", "field_count", "created_at").
		From(entsql.Table(tablePromptVersions)).
		Where(entsql.EQ("template_id", templateID)).
		OrderBy("id").
		Query()

	var out []entity.PromptVersion
	err := s.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			v       entity.PromptVersion
			created int64
		)
		if err := rows.Scan(&v.TemplateID, &v.Version, &v.Prompt, &v.FieldCount, &created); err != nil {
			return err
		}
		v.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list prompt versions for %q: %w", templateID, err)
	}
	return out, nil
}
