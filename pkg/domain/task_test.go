package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/neoform/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rogueTask struct{ domain.Tool }

func TestAllTaskKindsAreHandled(t *testing.T) {
	seen := make(map[string]bool)
	for _, task := range domain.AllTaskKinds() {
		_, err := domain.TaskInputs(task)
		assert.NoError(t, err, "TaskInputs must handle %T", task)

		_, err = domain.TaskSlots(task)
		assert.NoError(t, err, "TaskSlots must handle %T", task)

		kind := domain.TaskKind(task)
		assert.False(t, seen[kind], "kind label %q reused", kind)
		seen[kind] = true
	}
	assert.Len(t, seen, 12)
}

func TestTaskInputs_RejectsForeignVariant(t *testing.T) {
	_, err := domain.TaskInputs(rogueTask{})
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestTaskReferences(t *testing.T) {
	t.Run("Nested Lists And Arguments", func(t *testing.T) {
		tool := domain.Tool{
			Name: "decompile",
			Args: []domain.Argument{
				domain.Literal("-jar"),
				domain.FileArg{Input: domain.FromTask("rename")},
				domain.ClasspathArg{
					Input: domain.ListInput{Inputs: []domain.Input{
						domain.FromTask("listLibraries"),
						domain.ListInput{Inputs: []domain.Input{
							domain.TaskInput{Output: domain.Output{Task: "strip", Slot: domain.SlotResources}},
						}},
						domain.ParameterInput{Name: "extra"},
					}},
					ListFile: true,
					Prefix:   "-e=",
				},
				domain.FileOutputArg{Slot: "output", Extension: "jar"},
			},
		}

		refs, err := domain.TaskReferences(tool)
		require.NoError(t, err)
		assert.Equal(t, []domain.Output{
			domain.OutputOf("rename"),
			domain.OutputOf("listLibraries"),
			{Task: "strip", Slot: domain.SlotResources},
		}, refs)

		params, err := domain.ParameterReferences(tool)
		require.NoError(t, err)
		assert.Equal(t, []string{"extra"}, params)
	})

	t.Run("Optional Transform Inputs Skipped", func(t *testing.T) {
		jst := domain.TransformSources{
			Name:      "transformSources",
			Input:     domain.FromTask("patch"),
			Libraries: domain.FromTask("listLibraries"),
		}
		refs, err := domain.TaskReferences(jst)
		require.NoError(t, err)
		assert.Len(t, refs, 2)
	})

	t.Run("Compile Stubs", func(t *testing.T) {
		c := domain.Compile{
			Name:      "recompile",
			Args:      []domain.Argument{domain.Literal("-g")},
			Sources:   domain.FromTask("transformSources"),
			Stubs:     []domain.Input{domain.TaskInput{Output: domain.Output{Task: "transformSources", Slot: domain.SlotStubs}}},
			Classpath: domain.FromTask("listLibraries"),
		}
		refs, err := domain.TaskReferences(c)
		require.NoError(t, err)
		assert.Equal(t, []domain.Output{
			domain.OutputOf("transformSources"),
			{Task: "transformSources", Slot: domain.SlotStubs},
			domain.OutputOf("listLibraries"),
		}, refs)
	})
}

func TestTaskSlots_ToolOutputsComeFromArguments(t *testing.T) {
	tool := domain.Tool{Name: "merge", Args: []domain.Argument{
		domain.FileOutputArg{Slot: "output", Extension: "tsrg"},
	}}
	slots, err := domain.TaskSlots(tool)
	require.NoError(t, err)
	assert.Equal(t, []string{"output"}, slots)
}

func TestGraphError(t *testing.T) {
	err := domain.Errorf(domain.ErrUnknownStepType, "decompile", "no function declared")
	assert.True(t, errors.Is(err, domain.ErrUnknownStepType))
	assert.Equal(t, `unknown step type "decompile": no function declared`, err.Error())

	var ge *domain.GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "decompile", ge.Subject)
}

func TestConfigLookups(t *testing.T) {
	cfg := &domain.Config{
		Parameters: map[string]domain.Value{"b": domain.String("2"), "a": domain.String("1")},
		Tasks:      []domain.Task{domain.DownloadManifest{Name: "downloadManifest"}},
	}
	task, ok := cfg.Task("downloadManifest")
	assert.True(t, ok)
	assert.Equal(t, "downloadManifest", task.TaskName())

	_, ok = cfg.Task("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, cfg.ParameterNames())
	assert.Equal(t, []string{"downloadManifest"}, cfg.TaskNames())
}
