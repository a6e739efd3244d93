package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 商品画像の保存先（ローカルディスク）。/assets/ 配下で配信する。
type FSWriter struct {
	AssetsDir     string
	PublicBaseURL string
	Folder        string
}

func NewFSWriter(assetsDir string, publicBaseURL string) *FSWriter {
	return &FSWriter{
		AssetsDir:     assetsDir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		Folder:        "items",
	}
}

// Saveは一意なファイル名で保存して公開URLを返す。拡張子だけ元の名前から引き継ぐ。
func (w *FSWriter) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(w.AssetsDir, w.Folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir assets: %w", err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return w.buildURL("/assets/" + w.Folder + "/" + name), nil
}

func (w *FSWriter) buildURL(path string) string {
	if w.PublicBaseURL == "" {
		return path
	}
	return w.PublicBaseURL + path
}
