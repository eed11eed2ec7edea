// Определяет политики безопасности для обработки пользовательского контента форм. Политики применяются к подписям полей и текстовым значениям ответов, чтобы предотвратить XSS.
//
// Основные возможности:
//   - StripTagsPolicy - удаляет любую разметку (подписи полей, названия форм).
//   - UgcPolicy - допускает безопасное подмножество HTML (описания форм).
package policy

import (
	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()
