package dao

import (
	"testing"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestWorkflow(stepNames ...string) *ApprovalWorkflow {
	w := &ApprovalWorkflow{
		ID:           GenUUID(),
		Name:         "Согласование заявки",
		WorkflowType: types.WorkflowSequential,
		IsActive:     true,
	}
	for _, name := range stepNames {
		w.AddStep(&ApprovalStep{StepName: name, StepType: types.StepUserApproval})
	}
	return w
}

func TestWorkflowSteps(t *testing.T) {
	w := newTestWorkflow("Руководитель", "Бухгалтерия", "Директор")

	t.Run("orders assigned on add", func(t *testing.T) {
		steps := w.SortedSteps()
		assert.Equal(t, 1, steps[0].StepOrder)
		assert.Equal(t, 3, steps[2].StepOrder)
		assert.Equal(t, "Руководитель", w.FirstStep().StepName)
	})

	t.Run("default timeout applied", func(t *testing.T) {
		assert.Equal(t, DefaultStepTimeoutHours, w.Steps[0].TimeoutHours)
	})

	t.Run("next step traversal", func(t *testing.T) {
		first := w.FirstStep()
		second := w.NextStepAfter(first.StepOrder)
		assert.Equal(t, "Бухгалтерия", second.StepName)
		third := w.NextStepAfter(second.StepOrder)
		assert.Equal(t, "Директор", third.StepName)
		assert.Nil(t, w.NextStepAfter(third.StepOrder))
	})
}

func TestWorkflowRemoveStep(t *testing.T) {
	w := newTestWorkflow("Первый", "Второй", "Третий")

	removed := w.RemoveStep(w.SortedSteps()[1].ID)
	assert.True(t, removed)

	// оставшиеся шаги перенумерованы в непрерывный ряд
	steps := w.SortedSteps()
	assert.Len(t, steps, 2)
	assert.Equal(t, "Первый", steps[0].StepName)
	assert.Equal(t, 1, steps[0].StepOrder)
	assert.Equal(t, "Третий", steps[1].StepName)
	assert.Equal(t, 2, steps[1].StepOrder)

	assert.False(t, w.RemoveStep(GenUUID()))
}

func TestWorkflowReorderSteps(t *testing.T) {
	w := newTestWorkflow("A", "B", "C")
	steps := w.SortedSteps()

	t.Run("full permutation applied", func(t *testing.T) {
		err := w.ReorderSteps([]uuid.UUID{steps[2].ID, steps[0].ID, steps[1].ID})
		assert.NoError(t, err)
		reordered := w.SortedSteps()
		assert.Equal(t, "C", reordered[0].StepName)
		assert.Equal(t, "A", reordered[1].StepName)
		assert.Equal(t, "B", reordered[2].StepName)
	})

	t.Run("incomplete list rejected", func(t *testing.T) {
		assert.ErrorIs(t, w.ReorderSteps([]uuid.UUID{steps[0].ID}), apierrors.ErrStepOrderInvalid)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		assert.ErrorIs(t,
			w.ReorderSteps([]uuid.UUID{steps[0].ID, steps[0].ID, steps[1].ID}),
			apierrors.ErrStepOrderInvalid)
	})

	t.Run("unknown id rejected", func(t *testing.T) {
		assert.ErrorIs(t,
			w.ReorderSteps([]uuid.UUID{steps[0].ID, steps[1].ID, GenUUID()}),
			apierrors.ErrStepNotFound)
	})
}

func TestStepTimeout(t *testing.T) {
	step := ApprovalStep{StepName: "Согласование", TimeoutHours: 24}
	startedAt := time.Now().Add(-25 * time.Hour)

	assert.True(t, step.IsTimeoutAt(startedAt, time.Now()))
	assert.False(t, step.IsTimeoutAt(time.Now().Add(-time.Hour), time.Now()))

	t.Run("zero timeout falls back to default", func(t *testing.T) {
		step := ApprovalStep{StepName: "Согласование"}
		assert.True(t, step.IsTimeoutAt(time.Now().Add(-25*time.Hour), time.Now()))
		assert.False(t, step.IsTimeoutAt(time.Now().Add(-23*time.Hour), time.Now()))
	})
}
