package repository

import (
	"context"

	"github.com/joseph-ayodele/docfields/internal/entity"
)

// Store is the raw persistence behind TemplateRepository. Implementations are
// last-write-wins per id and must be safe for concurrent use.
type Store interface {
	GetTemplate(ctx context.Context, id string) (*entity.Template, bool, error)
	ListTemplates(ctx context.Context) ([]*entity.Template, error)
	PutTemplate(ctx context.Context, tpl *entity.Template) error
	DeleteTemplate(ctx context.Context, id string) (bool, error)

	GetInstructions(ctx context.Context, templateID string) (map[string]string, error)
	PutInstructions(ctx context.Context, templateID string, instructions map[string]string) error

	GetSetting(ctx context.Context, name string) (string, bool, error)
	PutSetting(ctx context.Context, name, value string) error

	// AppendPromptVersion stores v and drops all but the newest keep versions of
	// its template. It is a no-op when the newest stored version equals v.Version.
	AppendPromptVersion(ctx context.Context, v entity.PromptVersion, keep int) error
	// ListPromptVersions returns a template's versions, oldest first.
	ListPromptVersions(ctx context.Context, templateID string) ([]entity.PromptVersion, error)
}
