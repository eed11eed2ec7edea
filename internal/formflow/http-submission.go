// Обработчики приема и просмотра ответов на формы.
//
// Основные возможности:
//   - Публичное получение опубликованной формы и отправка ответа.
//   - Отслеживание статуса ответа по трекинг-номеру без авторизации.
//   - Просмотр списка ответов и вложений администратором.
package formflow

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/business"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/pkg/limiter"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (s *Services) AddAnswerServices(g *echo.Group) {
	answerGroup := g.Group("forms/:formSlug", OptionalAuthMiddleware, s.AnswerFormMiddleware)
	answerGroup.GET("/", s.getAnswerForm)
	answerGroup.POST("/answer/", s.createAnswer)

	g.GET("track/:trackingNumber/", s.trackAnswer, OptionalAuthMiddleware)
}

// getAnswerForm godoc
// @id getAnswerForm
// @Summary ответы: получить форму для заполнения
// @Description Возвращает опубликованную форму с полями и правилами условной логики.
// @Tags Answers
// @Produce json
// @Param formSlug path string true "Slug формы"
// @Success 200 {object} dto.Form "Форма"
// @Failure 403 {object} apierrors.DefinedError "Форма требует авторизации"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/forms/{formSlug}/ [get]
func (s *Services) getAnswerForm(c echo.Context) error {
	form := c.(AnswerFormContext).Form
	return c.JSON(http.StatusOK, form.ToDTO())
}

// createAnswer godoc
// @id createAnswer
// @Summary ответы: отправить ответ на форму
// @Description Принимает ответ на форму. Значения передаются как JSON либо multipart-форма с файлами. Возвращает ответ с трекинг-номером.
// @Tags Answers
// @Accept json
// @Accept mpfd
// @Produce json
// @Param formSlug path string true "Slug формы"
// @Param answer body reqAnswer true "Значения полей"
// @Success 200 {object} dto.Submission "Принятый ответ"
// @Failure 400 {object} apierrors.FieldError "Ошибка валидации значения"
// @Failure 403 {object} apierrors.DefinedError "Форма требует авторизации"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/forms/{formSlug}/answer/ [post]
func (s *Services) createAnswer(c echo.Context) error {
	ctx := c.(AnswerFormContext)
	form := ctx.Form

	if !limiter.Limiter.CanSubmit(form.ID) {
		return EErrorDefined(c, apierrors.ErrQuotaExceeded)
	}

	input := business.SubmissionInput{
		Values:      map[string]string{},
		Files:       map[string]business.FileMeta{},
		CreatedById: ctx.ActorId,
	}

	if multipart, err := c.MultipartForm(); err == nil && multipart != nil {
		for name, values := range multipart.Value {
			if len(values) > 0 {
				input.Values[name] = values[0]
			}
		}
		for name, headers := range multipart.File {
			if len(headers) == 0 {
				continue
			}
			header := headers[0]
			src, err := header.Open()
			if err != nil {
				return EError(c, err)
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				return EError(c, err)
			}
			input.Files[name] = business.FileMeta{
				Name:        header.Filename,
				ContentType: header.Header.Get(echo.HeaderContentType),
				Size:        header.Size,
				Data:        data,
			}
		}
	} else {
		var req reqAnswer
		if err := c.Bind(&req); err != nil {
			return EErrorDefined(c, apierrors.ErrFormBadRequest)
		}
		input.Values = req.Values
	}

	if len(input.Files) > 0 && !limiter.Limiter.CanAddAttachment(form.ID) {
		return EErrorDefined(c, apierrors.ErrQuotaExceeded)
	}

	submission, err := s.business.SubmitForm(&form, input)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, submission.ToDTO())
}

// trackAnswer godoc
// @id trackAnswer
// @Summary ответы: статус по трекинг-номеру
// @Description Возвращает статус ответа по его трекинг-номеру.
// @Tags Answers
// @Produce json
// @Param trackingNumber path string true "Трекинг-номер ответа"
// @Success 200 {object} dto.Submission "Ответ"
// @Failure 404 {object} apierrors.DefinedError "Ответ не найден"
// @Router /api/track/{trackingNumber}/ [get]
func (s *Services) trackAnswer(c echo.Context) error {
	submission, err := s.business.GetSubmissionByTracking(c.Param("trackingNumber"))
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, submission.ToDTO())
}

// getAnswers godoc
// @id getAnswers
// @Summary ответы: список по форме
// @Description Возвращает постраничный список ответов на форму.
// @Tags Answers
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param offset query int false "Смещение"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} dao.PaginationResponse "Список ответов"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Router /api/auth/forms/{formSlug}/answers/ [get]
func (s *Services) getAnswers(c echo.Context) error {
	form := c.(FormContext).Form

	offset := -1
	limit := 100
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).BindError(); err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	var submissions []dao.Submission
	res, err := dao.PaginationRequest(offset, limit,
		s.db.Preload("Values").
			Where("form_id = ?", form.ID).
			Order("seq_id desc"),
		&submissions)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// getAnswer godoc
// @id getAnswer
// @Summary ответы: получить ответ
// @Description Возвращает ответ по порядковому номеру в форме со значениями, вложениями и процессом согласования.
// @Tags Answers
// @Produce json
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param answerSeq path int true "Порядковый номер ответа"
// @Success 200 {object} dto.Submission "Ответ"
// @Failure 404 {object} apierrors.DefinedError "Ответ не найден"
// @Router /api/auth/forms/{formSlug}/answers/{answerSeq}/ [get]
func (s *Services) getAnswer(c echo.Context) error {
	submission, err := s.answerBySeq(c)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, submission.ToDTO())
}

// deleteAnswer godoc
// @id deleteAnswer
// @Summary ответы: удалить ответ
// @Description Удаляет ответ вместе со значениями и вложениями.
// @Tags Answers
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param answerSeq path int true "Порядковый номер ответа"
// @Success 204 "Ответ удален"
// @Failure 404 {object} apierrors.DefinedError "Ответ не найден"
// @Router /api/auth/forms/{formSlug}/answers/{answerSeq}/ [delete]
func (s *Services) deleteAnswer(c echo.Context) error {
	submission, err := s.answerBySeq(c)
	if err != nil {
		return EError(c, err)
	}

	if err := s.db.Delete(submission).Error; err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// getAnswerAttachment godoc
// @id getAnswerAttachment
// @Summary ответы: скачать вложение
// @Description Отдает содержимое вложения ответа.
// @Tags Answers
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param formSlug path string true "Slug формы"
// @Param answerSeq path int true "Порядковый номер ответа"
// @Param assetId path string true "ID файла"
// @Success 200 {file} file "Содержимое файла"
// @Failure 404 {object} apierrors.DefinedError "Вложение не найдено"
// @Router /api/auth/forms/{formSlug}/answers/{answerSeq}/attachments/{assetId}/ [get]
func (s *Services) getAnswerAttachment(c echo.Context) error {
	submission, err := s.answerBySeq(c)
	if err != nil {
		return EError(c, err)
	}

	var attachment *dao.SubmissionAttachment
	for i := range submission.Attachments {
		if submission.Attachments[i].AssetId.String() == c.Param("assetId") {
			attachment = &submission.Attachments[i]
			break
		}
	}
	if attachment == nil || attachment.Asset == nil {
		return EErrorDefined(c, apierrors.ErrAttachmentNotFound)
	}

	reader, err := s.storage.LoadReader(attachment.AssetId)
	if err != nil {
		return EError(c, err)
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, attachment.Asset.ContentType, reader)
}

func (s *Services) answerBySeq(c echo.Context) (*dao.Submission, error) {
	form := c.(FormContext).Form

	seq, err := strconv.Atoi(c.Param("answerSeq"))
	if err != nil {
		return nil, apierrors.ErrSubmissionNotFound
	}

	var submission dao.Submission
	if err := s.db.
		Preload("Values").
		Preload("Attachments").
		Preload("Attachments.Asset").
		Where("form_id = ?", form.ID).
		Where("seq_id = ?", seq).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ErrSubmissionNotFound
		}
		return nil, err
	}
	submission.Form = &form
	return &submission, nil
}
