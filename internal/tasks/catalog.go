package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/treb-deploy/internal/adapters/taskfile"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// Catalog is the explicit task registry: the compiled-in tasks followed by
// the tasks of the tasks file, assembled once and never mutated
type Catalog struct {
	builtin   []*domain.Task
	tasksFile string
	log       *slog.Logger

	once  sync.Once
	tasks []*domain.Task
	err   error
}

// NewCatalog creates the catalog for the project described by cfg
func NewCatalog(cfg *config.RuntimeConfig, log *slog.Logger) *Catalog {
	var builtin []*domain.Task
	if cfg.DeployConfig == nil || !cfg.DeployConfig.Defaults.DisableBuiltinTasks {
		builtin = Builtin()
	}

	tasksFile := cfg.TasksFile
	if tasksFile == "" {
		tasksFile = config.DefaultTasksFile
	}
	if !filepath.IsAbs(tasksFile) {
		tasksFile = filepath.Join(cfg.ProjectRoot, tasksFile)
	}

	return NewCatalogWith(builtin, tasksFile, log)
}

// NewCatalogWith creates a catalog from explicit built-in tasks and a tasks file path
func NewCatalogWith(builtin []*domain.Task, tasksFile string, log *slog.Logger) *Catalog {
	return &Catalog{
		builtin:   builtin,
		tasksFile: tasksFile,
		log:       log,
	}
}

// Tasks returns every registered task in registration order
func (c *Catalog) Tasks(ctx context.Context) ([]*domain.Task, error) {
	c.once.Do(func() {
		c.tasks, c.err = c.assemble()
	})
	return c.tasks, c.err
}

func (c *Catalog) assemble() ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(c.builtin))
	tasks = append(tasks, c.builtin...)

	if _, err := os.Stat(c.tasksFile); err == nil {
		declared, err := taskfile.LoadFile(c.tasksFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		c.log.Debug("loaded tasks file", "path", c.tasksFile, "tasks", len(declared))
		tasks = append(tasks, declared...)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat tasks file: %w", err)
	}

	seen := make(map[string]string, len(tasks))
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		if source, ok := seen[task.Name]; ok {
			return nil, fmt.Errorf("%w: %s is registered by %s and %s", domain.ErrDuplicateTask, task.Name, source, task.Source)
		}
		seen[task.Name] = task.Source
	}

	return tasks, nil
}

var _ usecase.TaskCatalog = (*Catalog)(nil)
