// Обработчики маршрутов согласования и процессов по ответам.
//
// Основные возможности:
//   - Управление маршрутами: создание, редактирование, удаление.
//   - Управление шагами: добавление, удаление, изменение порядка.
//   - Процессы: действия согласующих, отмена, история.
package formflow

import (
	"errors"
	"net/http"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/business"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/dto"
	"github.com/aisa-it/formflow/internal/formflow/types"
	"github.com/aisa-it/formflow/internal/formflow/utils"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type WorkflowContext struct {
	AuthContext
	Workflow dao.ApprovalWorkflow
}

func (s *Services) WorkflowMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		workflowId, err := uuid.FromString(c.Param("workflowId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrWorkflowNotFound)
		}

		var workflow dao.ApprovalWorkflow
		if err := s.db.
			Preload("Steps").
			Where("id = ?", workflowId).
			First(&workflow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EErrorDefined(c, apierrors.ErrWorkflowNotFound)
			}
			return EError(c, err)
		}

		return next(WorkflowContext{c.(AuthContext), workflow})
	}
}

func (s *Services) AddWorkflowServices(g *echo.Group) {
	workflowsGroup := g.Group("workflows", AuthMiddleware)
	workflowsGroup.Use(s.FormPermissionMiddleware)

	workflowsGroup.GET("/", s.getWorkflowList)
	workflowsGroup.POST("/", s.createWorkflow)

	workflowGroup := g.Group("workflows/:workflowId", AuthMiddleware, s.WorkflowMiddleware, s.FormPermissionMiddleware)
	workflowGroup.GET("/", s.getWorkflow)
	workflowGroup.PATCH("/", s.updateWorkflow)
	workflowGroup.DELETE("/", s.deleteWorkflow)

	workflowGroup.POST("/steps/", s.createWorkflowStep)
	workflowGroup.DELETE("/steps/:stepId/", s.deleteWorkflowStep)
	workflowGroup.POST("/steps/reorder/", s.reorderWorkflowSteps)

	processGroup := g.Group("processes/:processId", AuthMiddleware)
	processGroup.GET("/", s.getProcess)
	processGroup.POST("/actions/", s.createProcessAction)
	processGroup.POST("/cancel/", s.cancelProcess)

	g.GET("submissions/:submissionId/process/", s.getSubmissionProcess, AuthMiddleware)
}

// getWorkflowList godoc
// @id getWorkflowList
// @Summary согласование: список маршрутов
// @Tags Workflows
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.ApprovalWorkflowLight "Список маршрутов"
// @Failure 403 {object} apierrors.DefinedError "Ошибка: доступ запрещен"
// @Router /api/auth/workflows/ [get]
func (s *Services) getWorkflowList(c echo.Context) error {
	var workflows []dao.ApprovalWorkflow
	if err := s.db.Order("lower(name)").Find(&workflows).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(
		http.StatusOK,
		utils.SliceToSlice(&workflows, func(w *dao.ApprovalWorkflow) dto.ApprovalWorkflowLight { return *w.ToLightDTO() }),
	)
}

// createWorkflow godoc
// @id createWorkflow
// @Summary согласование: создать маршрут
// @Description Создает маршрут согласования. Шаги добавляются отдельными запросами.
// @Tags Workflows
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param workflow body reqWorkflow true "Данные маршрута"
// @Success 200 {object} dto.ApprovalWorkflow "Созданный маршрут"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных"
// @Router /api/auth/workflows/ [post]
func (s *Services) createWorkflow(c echo.Context) error {
	var req reqWorkflow
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	workflow := dao.ApprovalWorkflow{
		ID:           dao.GenUUID(),
		WorkflowType: types.WorkflowSequential,
		IsActive:     true,
	}
	req.Bind(&workflow)

	if err := s.db.Omit("Steps").Create(&workflow).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, workflow.ToDTO())
}

// getWorkflow godoc
// @id getWorkflow
// @Summary согласование: получить маршрут
// @Tags Workflows
// @Produce json
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Success 200 {object} dto.ApprovalWorkflow "Маршрут с шагами"
// @Failure 404 {object} apierrors.DefinedError "Маршрут не найден"
// @Router /api/auth/workflows/{workflowId}/ [get]
func (s *Services) getWorkflow(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow
	return c.JSON(http.StatusOK, workflow.ToDTO())
}

// updateWorkflow godoc
// @id updateWorkflow
// @Summary согласование: обновить маршрут
// @Tags Workflows
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Param workflow body reqWorkflow true "Новые данные маршрута"
// @Success 200 {object} dto.ApprovalWorkflow "Обновленный маршрут"
// @Failure 404 {object} apierrors.DefinedError "Маршрут не найден"
// @Router /api/auth/workflows/{workflowId}/ [patch]
func (s *Services) updateWorkflow(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow

	var req reqWorkflow
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	req.Bind(&workflow)

	if err := s.db.Omit("Steps").Save(&workflow).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, workflow.ToDTO())
}

// deleteWorkflow godoc
// @id deleteWorkflow
// @Summary согласование: удалить маршрут
// @Description Удаляет маршрут вместе с шагами. История завершенных процессов сохраняется.
// @Tags Workflows
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Success 204 "Маршрут удален"
// @Failure 404 {object} apierrors.DefinedError "Маршрут не найден"
// @Router /api/auth/workflows/{workflowId}/ [delete]
func (s *Services) deleteWorkflow(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow

	if err := s.db.Delete(&workflow).Error; err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// createWorkflowStep godoc
// @id createWorkflowStep
// @Summary согласование: добавить шаг
// @Description Добавляет шаг в конец маршрута.
// @Tags Workflows
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Param step body reqStep true "Данные шага"
// @Success 200 {object} dto.ApprovalStep "Созданный шаг"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных"
// @Failure 404 {object} apierrors.DefinedError "Маршрут не найден"
// @Router /api/auth/workflows/{workflowId}/steps/ [post]
func (s *Services) createWorkflowStep(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow

	var req reqStep
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	step := dao.ApprovalStep{
		ID:       dao.GenUUID(),
		StepType: types.StepUserApproval,
	}
	req.Bind(&step)
	workflow.AddStep(&step)

	if err := s.db.Create(&step).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, step.ToDTO())
}

// deleteWorkflowStep godoc
// @id deleteWorkflowStep
// @Summary согласование: удалить шаг
// @Description Удаляет шаг маршрута и пересчитывает порядок оставшихся. Шаг с незавершенным процессом удалить нельзя.
// @Tags Workflows
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Param stepId path string true "ID шага"
// @Success 204 "Шаг удален"
// @Failure 409 {object} apierrors.DefinedError "Шаг используется незавершенным процессом"
// @Failure 404 {object} apierrors.DefinedError "Шаг не найден"
// @Router /api/auth/workflows/{workflowId}/steps/{stepId}/ [delete]
func (s *Services) deleteWorkflowStep(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow

	stepId, err := uuid.FromString(c.Param("stepId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrStepNotFound)
	}

	if err := s.business.RemoveWorkflowStep(&workflow, stepId); err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// reorderWorkflowSteps godoc
// @id reorderWorkflowSteps
// @Summary согласование: изменить порядок шагов
// @Description Задает новый порядок шагов маршрута. Список должен содержать все шаги ровно по одному разу.
// @Tags Workflows
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param workflowId path string true "ID маршрута"
// @Param order body reqReorderSteps true "Новый порядок шагов"
// @Success 200 {object} dto.ApprovalWorkflow "Маршрут с новым порядком шагов"
// @Failure 400 {object} apierrors.DefinedError "Некорректный список шагов"
// @Router /api/auth/workflows/{workflowId}/steps/reorder/ [post]
func (s *Services) reorderWorkflowSteps(c echo.Context) error {
	workflow := c.(WorkflowContext).Workflow

	var req reqReorderSteps
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	stepIds := make([]uuid.UUID, 0, len(req.StepIds))
	for _, raw := range req.StepIds {
		stepId, err := uuid.FromString(raw)
		if err != nil {
			return EErrorDefined(c, apierrors.ErrStepOrderInvalid)
		}
		stepIds = append(stepIds, stepId)
	}

	if err := workflow.ReorderSteps(stepIds); err != nil {
		return EError(c, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range workflow.Steps {
			if err := tx.Model(&dao.ApprovalStep{}).
				Where("id = ?", workflow.Steps[i].ID).
				Update("step_order", workflow.Steps[i].StepOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, workflow.ToDTO())
}

// getProcess godoc
// @id getProcess
// @Summary согласование: получить процесс
// @Description Возвращает процесс согласования с историей действий.
// @Tags Workflows
// @Produce json
// @Security ApiKeyAuth
// @Param processId path string true "ID процесса"
// @Success 200 {object} dto.ApprovalProcess "Процесс"
// @Failure 404 {object} apierrors.DefinedError "Процесс не найден"
// @Router /api/auth/processes/{processId}/ [get]
func (s *Services) getProcess(c echo.Context) error {
	processId, err := uuid.FromString(c.Param("processId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrProcessNotFound)
	}

	process, err := s.business.GetProcess(processId)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, process.ToDTO())
}

// getSubmissionProcess godoc
// @id getSubmissionProcess
// @Summary согласование: процесс по ответу
// @Tags Workflows
// @Produce json
// @Security ApiKeyAuth
// @Param submissionId path string true "ID ответа"
// @Success 200 {object} dto.ApprovalProcess "Процесс"
// @Failure 404 {object} apierrors.DefinedError "Процесс не найден"
// @Router /api/auth/submissions/{submissionId}/process/ [get]
func (s *Services) getSubmissionProcess(c echo.Context) error {
	submissionId, err := uuid.FromString(c.Param("submissionId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrProcessNotFound)
	}

	process, err := s.business.GetProcessBySubmission(submissionId)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, process.ToDTO())
}

// createProcessAction godoc
// @id createProcessAction
// @Summary согласование: действие по процессу
// @Description Фиксирует действие согласующего: approve продвигает процесс, reject завершает с обязательным комментарием, остальные действия попадают в историю без смены состояния.
// @Tags Workflows
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param processId path string true "ID процесса"
// @Param action body reqAction true "Действие"
// @Success 200 {object} dto.ApprovalProcess "Процесс после действия"
// @Failure 400 {object} apierrors.DefinedError "Отклонение без комментария"
// @Failure 409 {object} apierrors.DefinedError "Процесс не в работе"
// @Router /api/auth/processes/{processId}/actions/ [post]
func (s *Services) createProcessAction(c echo.Context) error {
	ctx := c.(AuthContext)

	processId, err := uuid.FromString(c.Param("processId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrProcessNotFound)
	}

	var req reqAction
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	process, err := s.business.RecordAction(processId, business.ActionInput{
		Type:     types.ApprovalActionType(req.ActionType),
		ActorId:  ctx.ActorId.UUID,
		Comments: req.Comments,
	})
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, process.ToDTO())
}

// cancelProcess godoc
// @id cancelProcess
// @Summary согласование: отменить процесс
// @Description Отменяет незавершенный процесс. Для процесса в конечном состоянии ничего не делает.
// @Tags Workflows
// @Produce json
// @Security ApiKeyAuth
// @Param processId path string true "ID процесса"
// @Success 200 {object} dto.ApprovalProcess "Процесс"
// @Failure 404 {object} apierrors.DefinedError "Процесс не найден"
// @Router /api/auth/processes/{processId}/cancel/ [post]
func (s *Services) cancelProcess(c echo.Context) error {
	ctx := c.(AuthContext)

	processId, err := uuid.FromString(c.Param("processId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrProcessNotFound)
	}

	process, err := s.business.CancelProcess(processId, ctx.ActorId.UUID)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, process.ToDTO())
}
