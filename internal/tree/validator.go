package tree

import (
	"GophDrive/internal/model"
	"GophDrive/internal/repo"
	"context"
	"fmt"
)

// MoveValidator отклоняет перемещения, которые создали бы цикл в дереве.
type MoveValidator struct {
	folders repo.FolderRepository
}

func NewMoveValidator(folders repo.FolderRepository) *MoveValidator {
	return &MoveValidator{folders: folders}
}

// Validate проверяет перемещение узла movingUUID в папку destUUID.
// Цепочка предков назначения обходится начиная с самого назначения;
// если в ней встречается movingUUID, назначение лежит внутри перемещаемого поддерева.
func (v *MoveValidator) Validate(ctx context.Context, movingUUID, destUUID string) error {
	if movingUUID == destUUID {
		return model.ErrSelfMove
	}
	cur := destUUID
	for depth := 0; depth < MaxTreeDepth; depth++ {
		if cur == movingUUID {
			return model.ErrCycleDetected
		}
		parent, err := v.folders.ParentOf(ctx, cur)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		cur = *parent
	}
	return fmt.Errorf("%w: destination %s", ErrTreeTooDeep, destUUID)
}
