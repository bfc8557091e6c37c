package tree

import (
	"GophDrive/internal/model"
	"GophDrive/internal/repo"
	"context"
	"fmt"
	"strings"
)

// PathResolver вычисляет отображаемый путь узла по цепочке предков.
// Пути не кэшируются: каждый вызов читает актуальное состояние дерева.
type PathResolver struct {
	folders repo.FolderRepository
}

func NewPathResolver(folders repo.FolderRepository) *PathResolver {
	return &PathResolver{folders: folders}
}

// FolderPath возвращает путь папки вида "/root/child/".
func (p *PathResolver) FolderPath(ctx context.Context, folderUUID string) (string, error) {
	var names []string
	cur := folderUUID
	for {
		if len(names) >= MaxTreeDepth {
			return "", fmt.Errorf("%w: folder %s", ErrTreeTooDeep, folderUUID)
		}
		f, err := p.folders.GetByUUID(ctx, cur)
		if err != nil {
			return "", err
		}
		names = append(names, f.Name)
		if f.ParentUUID == nil {
			break
		}
		cur = *f.ParentUUID
	}

	var b strings.Builder
	b.WriteByte('/')
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteString(names[i])
		b.WriteByte('/')
	}
	return b.String(), nil
}

// FilePath возвращает путь файла: путь его папки плюс имя файла.
func (p *PathResolver) FilePath(ctx context.Context, f *model.File) (string, error) {
	dir, err := p.FolderPath(ctx, f.FolderUUID)
	if err != nil {
		return "", err
	}
	return dir + f.Name, nil
}

// NodePath возвращает путь папки или файла.
func (p *PathResolver) NodePath(ctx context.Context, n *model.Node) (string, error) {
	if n.Kind == model.KindFolder {
		return p.FolderPath(ctx, n.Folder.UUID)
	}
	return p.FilePath(ctx, n.File)
}
