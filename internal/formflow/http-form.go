// Пакет formflow предоставляет функциональность для управления динамическими формами и ответами на них. Он включает в себя конструктор форм с условной логикой показа полей, прием и валидацию ответов, а также маршруты многошагового согласования.
//
// Основные возможности:
//   - Управление формами: создание, редактирование, публикация, удаление.
//   - Конструктор полей: 20 типов полей, варианты ответов, правила валидации.
//   - Условная логика: правила показа, блокировки и обязательности полей.
//   - Прием ответов: валидация значений, вложения, трекинг-номера.
//   - Согласование: маршруты, шаги, действия согласующих, история.
package formflow

import (
	"errors"
	"net/http"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/dto"
	"github.com/aisa-it/formflow/internal/formflow/utils"
	"github.com/aisa-it/formflow/pkg/limiter"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sethvargo/go-password/password"
	"gorm.io/gorm"
)

type FormContext struct {
	AuthContext
	Form dao.Form
}

type AnswerFormContext struct {
	AuthContext
	Form dao.Form
}

func (s *Services) FormMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		formSlug := c.Param("formSlug")

		var form dao.Form
		if err := s.db.
			Preload("Fields").
			Preload("Fields.Options").
			Preload("Rules").
			Preload("Workflow").
			Preload("Workflow.Steps").
			Where("slug = ?", formSlug).
			First(&form).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EErrorDefined(c, apierrors.ErrFormNotFound)
			}
			return EError(c, err)
		}

		return next(FormContext{c.(AuthContext), form})
	}
}

func (s *Services) AnswerFormMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		formSlug := c.Param("formSlug")
		ctx := c.(AuthContext)

		var form dao.Form
		if err := s.db.
			Preload("Fields").
			Preload("Fields.Options").
			Preload("Rules").
			Preload("Workflow").
			Preload("Workflow.Steps").
			Where("slug = ?", formSlug).
			Where("is_published = true").
			First(&form).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return EErrorDefined(c, apierrors.ErrFormNotFound)
			}
			return EError(c, err)
		}

		if form.AuthRequire && !ctx.ActorId.Valid {
			return EErrorDefined(c, apierrors.ErrSubmissionForbidden)
		}

		return next(AnswerFormContext{ctx, form})
	}
}

func (s *Services) AddFormServices(g *echo.Group) {
	formsGroup := g.Group("forms", AuthMiddleware)
	formsGroup.Use(s.FormPermissionMiddleware)

	formsGroup.GET("/", s.getFormList)
	formsGroup.POST("/", s.createForm)

	formGroup := g.Group("forms/:formSlug", AuthMiddleware, s.FormMiddleware, s.FormPermissionMiddleware)

	formGroup.GET("/", s.getForm)
	formGroup.PATCH("/", s.updateForm)
	formGroup.DELETE("/", s.deleteForm)
	formGroup.POST("/publish/", s.publishForm)

	formGroup.POST("/fields/", s.createFormField)
	formGroup.PATCH("/fields/:fieldId/", s.updateFormField)
	formGroup.DELETE("/fields/:fieldId/", s.deleteFormField)
	formGroup.POST("/fields/:fieldId/options/", s.createFieldOption)
	formGroup.DELETE("/fields/:fieldId/options/:optionId/", s.deleteFieldOption)

	formGroup.POST("/rules/", s.createFormRule)
	formGroup.DELETE("/rules/:ruleId/", s.deleteFormRule)

	formGroup.GET("/answers/", s.getAnswers)
	formGroup.GET("/answers/:answerSeq/", s.getAnswer)
	formGroup.DELETE("/answers/:answerSeq/", s.deleteAnswer)
	formGroup.GET("/answers/:answerSeq/attachments/:assetId/", s.getAnswerAttachment)
}

// getFormList godoc
// @id getFormList
// @Summary формы: список
// @Description Возвращает список форм.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.FormLight "Список форм"
// @Failure 403 {object} apierrors.DefinedError "Ошибка: доступ запрещен"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/forms/ [get]
func (s *Services) getFormList(c echo.Context) error {
	var forms []dao.Form
	if err := s.db.Order("lower(title)").Find(&forms).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(
		http.StatusOK,
		utils.SliceToSlice(&forms, func(f *dao.Form) dto.FormLight { return *f.ToLightDTO() }),
	)
}

// createForm godoc
// @id createForm
// @Summary формы: создать форму
// @Description Создает новую форму.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param form body reqForm true "Данные формы"
// @Success 200 {object} dto.Form "Созданная форма"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных формы"
// @Failure 403 {object} apierrors.DefinedError "Недостаточно прав для создания формы"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/auth/forms/ [post]
func (s *Services) createForm(c echo.Context) error {
	ctx := c.(AuthContext)

	if !limiter.Limiter.CanCreateForm(ctx.ActorId.UUID) {
		return EErrorDefined(c, apierrors.ErrQuotaExceeded)
	}

	var req reqForm
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	form := dao.Form{
		ID:          dao.GenUUID(),
		CreatedById: ctx.ActorId.UUID,
		IsActive:    true,
	}
	req.Bind(&form)
	if form.Slug == "" {
		slug, err := password.Generate(10, 3, 0, true, true)
		if err != nil {
			return EError(c, err)
		}
		form.Slug = slug
	}

	if form.SubmissionEndDate != nil && !form.SubmissionEndDate.Time.After(time.Now().Truncate(24*time.Hour).UTC().Add(-time.Millisecond)) {
		return EErrorDefined(c, apierrors.ErrFormEndDate)
	}

	if err := s.db.Omit("Fields", "Rules", "Workflow").Create(&form).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, form.ToDTO())
}

// getForm godoc
// @id getForm
// @Summary формы: получить форму
// @Description Возвращает форму с полями, вариантами и правилами.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Success 200 {object} dto.Form "Форма"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/ [get]
func (s *Services) getForm(c echo.Context) error {
	form := c.(FormContext).Form
	return c.JSON(http.StatusOK, form.ToDTO())
}

// updateForm godoc
// @id updateForm
// @Summary формы: обновить форму
// @Description Обновляет атрибуты формы. Структура опубликованной формы недоступна для изменения.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param form body reqForm true "Новые данные формы"
// @Success 200 {object} dto.Form "Обновленная форма"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/ [patch]
func (s *Services) updateForm(c echo.Context) error {
	ctx := c.(FormContext)
	form := ctx.Form

	var req reqForm
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	req.Bind(&form)
	form.UpdatedById = ctx.ActorId

	if form.SubmissionEndDate != nil && !form.SubmissionEndDate.Time.After(time.Now().Truncate(24*time.Hour).UTC().Add(-time.Millisecond)) {
		return EErrorDefined(c, apierrors.ErrFormEndDate)
	}

	if err := s.db.Omit("Fields", "Rules", "Workflow").Save(&form).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, form.ToDTO())
}

// deleteForm godoc
// @id deleteForm
// @Summary формы: удалить форму
// @Description Удаляет форму вместе с полями, правилами и ответами.
// @Tags Forms
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Success 204 "Форма удалена"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/ [delete]
func (s *Services) deleteForm(c echo.Context) error {
	form := c.(FormContext).Form

	if err := s.db.Delete(&form).Error; err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// publishForm godoc
// @id publishForm
// @Summary формы: опубликовать форму
// @Description Публикует форму. Повторная публикация не меняет дату публикации. Форму без полей опубликовать нельзя.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Success 200 {object} dto.Form "Опубликованная форма"
// @Failure 400 {object} apierrors.DefinedError "Форма без полей"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/publish/ [post]
func (s *Services) publishForm(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.Publish(); err != nil {
		return EError(c, err)
	}

	if err := s.db.Select("is_published", "published_at").Updates(&form).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, form.ToDTO())
}

// createFormField godoc
// @id createFormField
// @Summary формы: добавить поле
// @Description Добавляет поле в форму. Имя поля уникально в рамках формы.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param field body reqField true "Данные поля"
// @Success 200 {object} dto.FormField "Созданное поле"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных поля"
// @Failure 403 {object} apierrors.DefinedError "Форма опубликована"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/fields/ [post]
func (s *Services) createFormField(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	var req reqField
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldNameInvalid)
	}

	var field dao.FormField
	req.Bind(&field)

	if err := form.AddField(&field); err != nil {
		return EError(c, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Create(&field).Error; err != nil {
			return err
		}
		for i, opt := range req.Options {
			option := dao.FormFieldOption{
				ID:        dao.GenUUID(),
				SortOrder: i + 1,
			}
			opt.Bind(&option)
			if err := field.AddOption(&option); err != nil {
				return err
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, field.ToDTO())
}

// updateFormField godoc
// @id updateFormField
// @Summary формы: обновить поле
// @Description Обновляет атрибуты поля неопубликованной формы.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param fieldId path string true "ID поля"
// @Param field body reqField true "Новые данные поля"
// @Success 200 {object} dto.FormField "Обновленное поле"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/auth/forms/{formSlug}/fields/{fieldId}/ [patch]
func (s *Services) updateFormField(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	fieldId, err := uuid.FromString(c.Param("fieldId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}
	field := form.FieldByID(fieldId)
	if field == nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}

	var req reqField
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldNameInvalid)
	}

	if req.Name != field.Name {
		if other := form.FieldByName(req.Name); other != nil {
			return EErrorDefined(c, apierrors.ErrFieldNameConflict)
		}
	}

	req.Bind(field)

	if err := s.db.Omit("Options").Save(field).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, field.ToDTO())
}

// deleteFormField godoc
// @id deleteFormField
// @Summary формы: удалить поле
// @Description Удаляет поле неопубликованной формы вместе с вариантами и правилами, где поле участвует.
// @Tags Forms
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param fieldId path string true "ID поля"
// @Success 204 "Поле удалено"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/auth/forms/{formSlug}/fields/{fieldId}/ [delete]
func (s *Services) deleteFormField(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	fieldId, err := uuid.FromString(c.Param("fieldId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}
	field := form.FieldByID(fieldId)
	if field == nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("form_id = ?", form.ID).
			Where("trigger_field_id = ? OR target_field_id = ?", fieldId, fieldId).
			Delete(&dao.ConditionalLogicRule{}).Error; err != nil {
			return err
		}
		return tx.Delete(field).Error
	})
	if err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// createFieldOption godoc
// @id createFieldOption
// @Summary формы: добавить вариант ответа
// @Description Добавляет вариант ответа к полю выбора. Значение варианта уникально в рамках поля.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param fieldId path string true "ID поля"
// @Param option body reqOption true "Данные варианта"
// @Success 200 {object} dto.FormFieldOption "Созданный вариант"
// @Failure 409 {object} apierrors.DefinedError "Тип поля не поддерживает варианты"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено"
// @Router /api/auth/forms/{formSlug}/fields/{fieldId}/options/ [post]
func (s *Services) createFieldOption(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	fieldId, err := uuid.FromString(c.Param("fieldId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}
	field := form.FieldByID(fieldId)
	if field == nil {
		return EErrorDefined(c, apierrors.ErrFieldNotFound)
	}

	var req reqOption
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrOptionInvalid)
	}

	option := dao.FormFieldOption{
		ID:        dao.GenUUID(),
		SortOrder: len(field.Options) + 1,
	}
	req.Bind(&option)

	if err := field.AddOption(&option); err != nil {
		return EError(c, err)
	}

	if err := s.db.Create(&option).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, option)
}

// deleteFieldOption godoc
// @id deleteFieldOption
// @Summary формы: удалить вариант ответа
// @Tags Forms
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param fieldId path string true "ID поля"
// @Param optionId path string true "ID варианта"
// @Success 204 "Вариант удален"
// @Failure 404 {object} apierrors.DefinedError "Вариант не найден"
// @Router /api/auth/forms/{formSlug}/fields/{fieldId}/options/{optionId}/ [delete]
func (s *Services) deleteFieldOption(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	optionId, err := uuid.FromString(c.Param("optionId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrOptionInvalid)
	}

	res := s.db.Unscoped().Where("id = ?", optionId).Delete(&dao.FormFieldOption{})
	if res.Error != nil {
		return EError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return EErrorDefined(c, apierrors.ErrOptionInvalid)
	}

	return c.NoContent(http.StatusNoContent)
}

// createFormRule godoc
// @id createFormRule
// @Summary формы: добавить правило условной логики
// @Description Добавляет правило показа/блокировки/обязательности поля. Пара триггер-цель уникальна в рамках формы.
// @Tags Forms
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param rule body reqRule true "Данные правила"
// @Success 200 {object} dto.ConditionalLogicRule "Созданное правило"
// @Failure 400 {object} apierrors.DefinedError "Поля правила не принадлежат форме"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/rules/ [post]
func (s *Services) createFormRule(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	var req reqRule
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	rule := dao.ConditionalLogicRule{ID: dao.GenUUID()}
	req.Bind(&rule)

	if err := form.AddRule(&rule); err != nil {
		return EError(c, err)
	}

	if err := s.db.Create(&rule).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, rule.ToDTO())
}

// deleteFormRule godoc
// @id deleteFormRule
// @Summary формы: удалить правило условной логики
// @Tags Forms
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param ruleId path string true "ID правила"
// @Success 204 "Правило удалено"
// @Failure 404 {object} apierrors.DefinedError "Правило не найдено"
// @Router /api/auth/forms/{formSlug}/rules/{ruleId}/ [delete]
func (s *Services) deleteFormRule(c echo.Context) error {
	form := c.(FormContext).Form

	if err := form.EnsureEditable(false); err != nil {
		return EError(c, err)
	}

	ruleId, err := uuid.FromString(c.Param("ruleId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	res := s.db.Unscoped().Where("id = ?", ruleId).Where("form_id = ?", form.ID).Delete(&dao.ConditionalLogicRule{})
	if res.Error != nil {
		return EError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	return c.NoContent(http.StatusNoContent)
}
