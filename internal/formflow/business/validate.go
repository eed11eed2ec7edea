// Валидация значения поля ответа.  Проверки выполняются в фиксированном порядке и возвращают первую найденную ошибку: обязательность, приведение типа, границы длины, числовые границы, шаблон, для файловых полей - тип и размер файла.  Пустое значение необязательного поля валидно без дальнейших проверок.
package business

import (
	"fmt"
	"net/mail"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aisa-it/formflow/internal/formflow/apierrors"
	"github.com/aisa-it/formflow/internal/formflow/dao"
	"github.com/aisa-it/formflow/internal/formflow/types"
)

var phoneRegexp = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{3,19}$`)

type coerceFunc func(value string) error

var coercers = map[types.FieldType]coerceFunc{
	types.FieldNumber:   coerceDecimal,
	types.FieldCurrency: coerceDecimal,
	types.FieldRating:   coerceInt,
	types.FieldBoolean:  coerceBool,
	types.FieldDate:     coerceLayout("2006-01-02"),
	types.FieldTime:     coerceLayout("15:04"),
	types.FieldDateTime: coerceDatetime,
	types.FieldEmail:    coerceEmail,
	types.FieldUrl:      coerceUrl,
	types.FieldPhone:    coercePhone,
}

func coerceDecimal(value string) error {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err
}

func coerceInt(value string) error {
	_, err := strconv.Atoi(strings.TrimSpace(value))
	return err
}

func coerceBool(value string) error {
	_, err := strconv.ParseBool(strings.TrimSpace(value))
	return err
}

func coerceLayout(layout string) coerceFunc {
	return func(value string) error {
		_, err := time.Parse(layout, strings.TrimSpace(value))
		return err
	}
}

func coerceDatetime(value string) error {
	value = strings.TrimSpace(value)
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return nil
	}
	_, err := time.Parse("2006-01-02 15:04", value)
	return err
}

func coerceEmail(value string) error {
	_, err := mail.ParseAddress(strings.TrimSpace(value))
	return err
}

func coerceUrl(value string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

func coercePhone(value string) error {
	if !phoneRegexp.MatchString(strings.TrimSpace(value)) {
		return fmt.Errorf("not a phone number")
	}
	return nil
}

// ValidateFieldValue проверяет значение поля с учетом эффективной обязательности (после применения условной логики). Возвращает первую найденную ошибку в виде FieldError.
func ValidateFieldValue(field *dao.FormField, value string, required bool) error {
	trimmed := strings.TrimSpace(value)

	// 1. required
	if trimmed == "" {
		if required {
			return apierrors.ForField(apierrors.ErrValueRequired, field.Name)
		}
		return nil
	}

	// 2. type coercion
	if coerce, ok := coercers[field.FieldType]; ok {
		if err := coerce(value); err != nil {
			return apierrors.ForField(apierrors.ErrValueTypeMismatch, field.Name)
		}
	}

	// option membership for choice fields
	if field.FieldType.SupportsOptions() && len(field.Options) > 0 {
		for _, part := range splitMulti(field, value) {
			if !field.HasOptionValue(part) {
				return apierrors.ForField(apierrors.ErrValueNotOption, field.Name)
			}
		}
	}

	rules := field.Validation

	// 3. length bounds
	length := len([]rune(trimmed))
	if rules.MinLength != nil && length < *rules.MinLength {
		return apierrors.ForField(apierrors.ErrValueLength, field.Name)
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return apierrors.ForField(apierrors.ErrValueLength, field.Name)
	}

	// 4. numeric bounds
	if rules.MinValue != nil || rules.MaxValue != nil {
		if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
			if rules.MinValue != nil && num < *rules.MinValue {
				return apierrors.ForField(apierrors.ErrValueRange, field.Name)
			}
			if rules.MaxValue != nil && num > *rules.MaxValue {
				return apierrors.ForField(apierrors.ErrValueRange, field.Name)
			}
		}
	}

	// 5. pattern
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil || !re.MatchString(trimmed) {
			patternErr := apierrors.ErrValuePattern
			if rules.CustomMessage != "" {
				patternErr.Err = rules.CustomMessage
				patternErr.RuErr = rules.CustomMessage
			}
			return apierrors.ForField(patternErr, field.Name)
		}
	}

	return nil
}

// splitMulti возвращает части значения для полей с несколькими ответами, иначе само значение.
func splitMulti(field *dao.FormField, value string) []string {
	if field.FieldType.SupportsMultipleValues() && field.Settings.AllowMultiple {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{strings.TrimSpace(value)}
}

// FileMeta - паспорт загружаемого файла для валидации.
type FileMeta struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// ValidateFileValue проверяет вложение файлового поля: расширение/MIME против allowed_file_types и размер против max_file_size_mb.
func ValidateFileValue(field *dao.FormField, file FileMeta) error {
	rules := field.Validation

	if len(rules.AllowedFileTypes) > 0 && !fileTypeAllowed(rules.AllowedFileTypes, file) {
		return apierrors.ForField(apierrors.ErrFileType, field.Name)
	}

	if rules.MaxFileSizeMB != nil && file.Size > *rules.MaxFileSizeMB*1024*1024 {
		return apierrors.ForField(apierrors.ErrFileSize, field.Name)
	}

	if dao.Config != nil && file.Size > int64(dao.Config.MaxUploadSizeMB)*1024*1024 {
		return apierrors.ForField(apierrors.ErrFileSize, field.Name)
	}

	return nil
}

// fileTypeAllowed сопоставляет файл со списком разрешений: расширение (".pdf" или "pdf") либо MIME-шаблон ("image/png", "image/*").
func fileTypeAllowed(allowed []string, file FileMeta) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Name), "."))
	contentType := strings.ToLower(file.ContentType)

	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if strings.Contains(a, "/") {
			if a == contentType {
				return true
			}
			if strings.HasSuffix(a, "/*") && strings.HasPrefix(contentType, strings.TrimSuffix(a, "*")) {
				return true
			}
			continue
		}
		if strings.TrimPrefix(a, ".") == ext {
			return true
		}
	}
	return false
}
