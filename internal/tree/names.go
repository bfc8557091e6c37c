package tree

import (
	"GophDrive/internal/model"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxNameLength — максимальная длина имени папки или файла в символах.
	MaxNameLength = 255
	// MaxTreeDepth ограничивает обход цепочки предков. Более длинная цепочка
	// означает, что сохранённое дерево повреждено.
	MaxTreeDepth = 4096
)

// ErrTreeTooDeep — цепочка предков длиннее MaxTreeDepth.
var ErrTreeTooDeep = errors.New("tree: ancestor chain exceeds maximum depth")

var nameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, MaxNameLength),
	validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("name cannot contain slashes"),
	validation.NotIn(".", "..").Error("name is reserved"),
}

// ValidateName проверяет имя узла. Пустое имя даёт model.ErrEmptyName,
// остальные нарушения — model.ErrInvalidName с описанием.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.ErrEmptyName
	}
	if err := validation.Validate(name, nameRules...); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidName, err)
	}
	return nil
}
