package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"todo-alarm/internal/service"
)

// YAMLTask represents a single task in the YAML input.
type YAMLTask struct {
	Name         string `yaml:"name"`
	DueDate      string `yaml:"due_date"`
	AlarmTime    string `yaml:"alarm_time"`
	Acknowledged bool   `yaml:"acknowledged,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// ImportFile reads a YAML file and creates its tasks.
func ImportFile(ctx context.Context, tasks *service.TaskService, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return Import(ctx, tasks, f)
}

// SeedFile imports path only into an empty task list.
func SeedFile(ctx context.Context, tasks *service.TaskService, path string) (int, error) {
	existing, err := tasks.ListTasks(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	return ImportFile(ctx, tasks, path)
}

// Import parses YAML and creates every task through the task service.
// Returns the number of tasks created before the first failure.
func Import(ctx context.Context, tasks *service.TaskService, r io.Reader) (int, error) {
	var input YAMLInput
	if err := yaml.NewDecoder(r).Decode(&input); err != nil {
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 {
		return 0, fmt.Errorf("no tasks found in YAML")
	}

	count := 0
	for i, yt := range input.Tasks {
		task, err := tasks.CreateTask(ctx, service.TaskInput{
			Name:      yt.Name,
			DueDate:   yt.DueDate,
			AlarmTime: yt.AlarmTime,
		})
		if err != nil {
			return count, fmt.Errorf("task %d (%q): %w", i+1, yt.Name, err)
		}
		count++
		if yt.Acknowledged {
			if err := tasks.Acknowledge(ctx, task.ID); err != nil {
				return count, fmt.Errorf("acknowledge %q: %w", yt.Name, err)
			}
		}
	}
	return count, nil
}
