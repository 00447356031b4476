package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

const settingActiveTemplate = "active_template_id"

// TemplateRepository manages templates, the active template selection,
// trained instructions and prompt history. The built-in default template is
// always present and read-only.
type TemplateRepository interface {
	List(ctx context.Context) ([]*entity.Template, error)
	Get(ctx context.Context, id string) (*entity.Template, error)
	Save(ctx context.Context, tpl *entity.Template) (*entity.Template, error)
	Delete(ctx context.Context, id string) error

	GetActiveID(ctx context.Context) (string, error)
	SetActiveID(ctx context.Context, id string) error

	SetInstructions(ctx context.Context, id string, instructions map[string]string) error

	SavePromptVersion(ctx context.Context, v entity.PromptVersion) error
	ListPromptVersions(ctx context.Context, templateID string) ([]entity.PromptVersion, error)
}

type templateRepository struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewTemplateRepository(store Store, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepository{store: store, logger: logger, now: time.Now}
}

func notFound(id string) error {
	return fmt.Errorf("template %q: %w", id, common.ErrNotFound)
}

// List returns the default template followed by stored templates, oldest first.
func (r *templateRepository) List(ctx context.Context) ([]*entity.Template, error) {
	stored, err := r.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Template, 0, len(stored)+1)
	out = append(out, entity.DefaultTemplate())
	out = append(out, stored...)
	for _, tpl := range out {
		if err := r.attachInstructions(ctx, tpl); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *templateRepository) Get(ctx context.Context, id string) (*entity.Template, error) {
	var tpl *entity.Template
	if id == entity.DefaultTemplateID {
		tpl = entity.DefaultTemplate()
	} else {
		stored, ok, err := r.store.GetTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFound(id)
		}
		tpl = stored
	}
	if err := r.attachInstructions(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *templateRepository) attachInstructions(ctx context.Context, tpl *entity.Template) error {
	instr, err := r.store.GetInstructions(ctx, tpl.ID)
	if err != nil {
		return err
	}
	tpl.Instructions = instr
	return nil
}

// Save normalizes, validates and stores a copy of tpl, assigning an id and
// timestamps as needed. Instructions on tpl replace the stored ones when non-nil.
func (r *templateRepository) Save(ctx context.Context, tpl *entity.Template) (*entity.Template, error) {
	if tpl.IsDefault() {
		return nil, common.NewAppError("READ_ONLY_TEMPLATE", "the default template cannot be modified", common.ErrForbidden)
	}
	out := tpl.Clone()
	out.Normalize()
	if err := out.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
		if existing, ok, err := r.store.GetTemplate(ctx, out.ID); err == nil && ok {
			out.CreatedAt = existing.CreatedAt
		}
	}
	out.UpdatedAt = now

	instructions := out.Instructions
	out.Instructions = nil
	if err := r.store.PutTemplate(ctx, out); err != nil {
		return nil, err
	}
	if instructions != nil {
		if err := r.store.PutInstructions(ctx, out.ID, instructions); err != nil {
			return nil, err
		}
	}
	out.Instructions = instructions
	r.logger.Info("template saved", "template_id", out.ID, "fields", len(out.Fields))
	return out, nil
}

// Delete removes a template. Deleting the active template makes the default active.
func (r *templateRepository) Delete(ctx context.Context, id string) error {
	if id == entity.DefaultTemplateID {
		return common.NewAppError("READ_ONLY_TEMPLATE", "the default template cannot be deleted", common.ErrForbidden)
	}
	ok, err := r.store.DeleteTemplate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(id)
	}

	active, err := r.GetActiveID(ctx)
	if err != nil {
		return err
	}
	if active == id {
		if err := r.store.PutSetting(ctx, settingActiveTemplate, entity.DefaultTemplateID); err != nil {
			return err
		}
	}
	r.logger.Info("template deleted", "template_id", id)
	return nil
}

func (r *templateRepository) GetActiveID(ctx context.Context) (string, error) {
	id, ok, err := r.store.GetSetting(ctx, settingActiveTemplate)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return entity.DefaultTemplateID, nil
	}
	return id, nil
}

func (r *templateRepository) SetActiveID(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.store.PutSetting(ctx, settingActiveTemplate, id)
}

// SetInstructions replaces a template's trained per-field instructions. Keys
// must belong to the template. This also works for the default template.
func (r *templateRepository) SetInstructions(ctx context.Context, id string, instructions map[string]string) error {
	tpl, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	v := common.NewValidator()
	for key := range instructions {
		if _, ok := tpl.FieldByKey(key); !ok {
			v.Add("instructions."+key, key, "no such field")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}
	return r.store.PutInstructions(ctx, id, instructions)
}

func (r *templateRepository) SavePromptVersion(ctx context.Context, v entity.PromptVersion) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = r.now().UTC()
	}
	return r.store.AppendPromptVersion(ctx, v, constants.PromptHistoryLimit)
}

func (r *templateRepository) ListPromptVersions(ctx context.Context, templateID string) ([]entity.PromptVersion, error) {
	return r.store.ListPromptVersions(ctx, templateID)
}
