// Пакет содержит определения ошибок, используемых в приложении formflow для обработки ситуаций, возникающих при работе с формами, ответами и процессами согласования.  Каждая ошибка имеет код, статус HTTP и описание, что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.
//
// Основные возможности:
//   - Определение типов ошибок, связанных с формами, полями, ответами, маршрутами и процессами согласования.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Обертка FieldError для ошибок валидации с привязкой к конкретному полю.
package apierrors

import (
	"fmt"
	"net/http"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// FieldError - ошибка валидации значения конкретного поля формы. Несет имя поля вместе с определенной ошибкой.
type FieldError struct {
	DefinedError
	FieldName string `json:"field"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.FieldName, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.DefinedError
}

// ForField привязывает определенную ошибку к полю формы.
func ForField(err DefinedError, fieldName string) FieldError {
	return FieldError{DefinedError: err, FieldName: fieldName}
}

var (
	ErrGeneric = DefinedError{Code: 1, StatusCode: http.StatusInternalServerError, Err: "internal server error", RuErr: "Внутренняя ошибка сервера"}

	// 32** - form errors
	ErrFormNotFound          = DefinedError{Code: 3201, StatusCode: http.StatusNotFound, Err: "form not found", RuErr: "Форма не найдена"}
	ErrFormForbidden         = DefinedError{Code: 3202, StatusCode: http.StatusForbidden, Err: "not allowed for current role", RuErr: "У вас недостаточно прав для выполнения действия"}
	ErrFormBadRequest        = DefinedError{Code: 3203, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrFormPublished         = DefinedError{Code: 3204, StatusCode: http.StatusForbidden, Err: "form is published and cannot be modified", RuErr: "Опубликованная форма не может быть изменена"}
	ErrFormPublishEmpty      = DefinedError{Code: 3205, StatusCode: http.StatusBadRequest, Err: "cannot publish a form without fields", RuErr: "Нельзя опубликовать форму без полей"}
	ErrFieldNameConflict     = DefinedError{Code: 3206, StatusCode: http.StatusBadRequest, Err: "field with this name already exists", RuErr: "Поле с таким именем уже существует в форме"}
	ErrFieldNameInvalid      = DefinedError{Code: 3207, StatusCode: http.StatusBadRequest, Err: "invalid field name", RuErr: "Недопустимое имя поля"}
	ErrFieldNotFound         = DefinedError{Code: 3208, StatusCode: http.StatusNotFound, Err: "field not found", RuErr: "Поле не найдено"}
	ErrFieldUnknownType      = DefinedError{Code: 3209, StatusCode: http.StatusBadRequest, Err: "unsupported field type", RuErr: "Задан неподдерживаемый тип поля"}
	ErrOptionsNotSupported   = DefinedError{Code: 3210, StatusCode: http.StatusConflict, Err: "field type does not support options", RuErr: "Тип поля не поддерживает варианты ответа"}
	ErrOptionValueConflict   = DefinedError{Code: 3211, StatusCode: http.StatusBadRequest, Err: "option with this value already exists", RuErr: "Вариант с таким значением уже добавлен"}
	ErrOptionInvalid         = DefinedError{Code: 3212, StatusCode: http.StatusBadRequest, Err: "option label and value are required", RuErr: "Вариант должен содержать подпись и значение"}
	ErrRuleConflict          = DefinedError{Code: 3213, StatusCode: http.StatusBadRequest, Err: "rule for this trigger and target already exists", RuErr: "Правило для этой пары полей уже существует"}
	ErrRuleFieldsMismatch    = DefinedError{Code: 3214, StatusCode: http.StatusBadRequest, Err: "rule fields must belong to the form", RuErr: "Поля правила должны принадлежать форме"}
	ErrFormEndDate           = DefinedError{Code: 3215, StatusCode: http.StatusBadRequest, Err: "the form cannot be created with a closed date", RuErr: "Форма не может быть создана с завершенной датой"}
	ErrFieldLabelInvalid     = DefinedError{Code: 3216, StatusCode: http.StatusBadRequest, Err: "field label is too long", RuErr: "Подпись поля слишком длинная"}

	// 33** - submission errors
	ErrSubmissionNotFound  = DefinedError{Code: 3301, StatusCode: http.StatusNotFound, Err: "submission not found", RuErr: "Ответ не найден"}
	ErrSubmissionForbidden = DefinedError{Code: 3302, StatusCode: http.StatusForbidden, Err: "access to the form requires authorization", RuErr: "Для доступа к форме необходимо пройти авторизацию"}
	ErrFormClosed          = DefinedError{Code: 3303, StatusCode: http.StatusBadRequest, Err: "form is closed", RuErr: "Форма закрыта"}
	ErrValueRequired       = DefinedError{Code: 3304, StatusCode: http.StatusBadRequest, Err: "value is required", RuErr: "Поле обязательно для заполнения"}
	ErrValueTypeMismatch   = DefinedError{Code: 3305, StatusCode: http.StatusBadRequest, Err: "value does not match the field type", RuErr: "Значение не соответствует типу поля"}
	ErrValueLength         = DefinedError{Code: 3306, StatusCode: http.StatusBadRequest, Err: "value length out of bounds", RuErr: "Длина значения вне допустимых границ"}
	ErrValueRange          = DefinedError{Code: 3307, StatusCode: http.StatusBadRequest, Err: "value out of range", RuErr: "Значение вне допустимого диапазона"}
	ErrValuePattern        = DefinedError{Code: 3308, StatusCode: http.StatusBadRequest, Err: "value does not match the pattern", RuErr: "Значение не соответствует шаблону"}
	ErrValueNotOption      = DefinedError{Code: 3309, StatusCode: http.StatusBadRequest, Err: "value is not one of the field options", RuErr: "Значение не входит в список вариантов"}
	ErrFileType            = DefinedError{Code: 3310, StatusCode: http.StatusBadRequest, Err: "file type is not allowed", RuErr: "Недопустимый тип файла"}
	ErrFileSize            = DefinedError{Code: 3311, StatusCode: http.StatusRequestEntityTooLarge, Err: "file size exceeds the limit", RuErr: "Размер файла превышает допустимый"}
	ErrAttachmentNotFound  = DefinedError{Code: 3312, StatusCode: http.StatusBadRequest, Err: "file not found by the provided UUID", RuErr: "Файл по указанному UUID не найден"}
	ErrQuotaExceeded       = DefinedError{Code: 3313, StatusCode: http.StatusTooManyRequests, Err: "quota exceeded", RuErr: "Превышена квота тарифа"}

	// 35** - workflow errors
	ErrWorkflowNotFound  = DefinedError{Code: 3501, StatusCode: http.StatusNotFound, Err: "approval workflow not found", RuErr: "Маршрут согласования не найден"}
	ErrWorkflowInactive  = DefinedError{Code: 3502, StatusCode: http.StatusForbidden, Err: "approval workflow is inactive", RuErr: "Маршрут согласования отключен"}
	ErrWorkflowNoSteps   = DefinedError{Code: 3503, StatusCode: http.StatusForbidden, Err: "approval workflow has no steps", RuErr: "В маршруте согласования нет шагов"}
	ErrStepNotFound      = DefinedError{Code: 3504, StatusCode: http.StatusNotFound, Err: "approval step not found", RuErr: "Шаг согласования не найден"}
	ErrStepInUse         = DefinedError{Code: 3505, StatusCode: http.StatusConflict, Err: "step is referenced by an in-flight approval process", RuErr: "Шаг используется незавершенным процессом согласования"}
	ErrStepOrderInvalid  = DefinedError{Code: 3506, StatusCode: http.StatusBadRequest, Err: "invalid step order", RuErr: "Некорректный порядок шагов"}

	// 36** - approval process errors
	ErrProcessNotFound      = DefinedError{Code: 3601, StatusCode: http.StatusNotFound, Err: "approval process not found", RuErr: "Процесс согласования не найден"}
	ErrProcessNotInProgress = DefinedError{Code: 3602, StatusCode: http.StatusConflict, Err: "approval process is not in progress", RuErr: "Процесс согласования не находится в работе"}
	ErrRejectCommentEmpty   = DefinedError{Code: 3603, StatusCode: http.StatusBadRequest, Err: "rejection requires a comment", RuErr: "Для отклонения необходимо указать комментарий"}
	ErrActionUnknownType    = DefinedError{Code: 3604, StatusCode: http.StatusBadRequest, Err: "unknown action type", RuErr: "Неизвестный тип действия"}
	ErrConcurrentUpdate     = DefinedError{Code: 3605, StatusCode: http.StatusConflict, Err: "concurrent update, retry from a fresh read", RuErr: "Конфликт одновременного изменения, повторите операцию"}
)
