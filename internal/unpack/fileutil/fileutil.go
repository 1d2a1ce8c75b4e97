// Package fileutil はファイル操作のユーティリティ関数を提供します
package fileutil

import (
	"bytes"
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/shiroemons/go-vnunpack/internal/unpack/interfaces"
)

// SanitizePath はアーカイブ内のパスを出力先からの相対パスに変換します。
// 区切り文字 `\` は `/` にそろえ、絶対パスや出力先の外を指すパスは拒否します。
func SanitizePath(name string) (string, error) {
	p := strings.ReplaceAll(name, `\`, "/")
	if p == "" || strings.HasPrefix(p, "/") || filepath.VolumeName(p) != "" || strings.Contains(p, ":") {
		return "", &PathError{Path: name, Err: ErrUnsafePath}
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", &PathError{Path: name, Err: ErrUnsafePath}
	}
	return p, nil
}

// ReplaceExt はパスの拡張子を ext に置き換えます
func ReplaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

// ImageEncoder は画像形式名から拡張子とエンコーダを返します
func ImageEncoder(format string) (string, imgio.Encoder, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return ".png", imgio.PNGEncoder(), nil
	case "bmp":
		return ".bmp", imgio.BMPEncoder(), nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, format)
	}
}

// DiskSaver は抽出したデータを出力先ディレクトリに保存します
type DiskSaver struct {
	fs       interfaces.FileSystem
	root     string
	imageExt string
	encoder  imgio.Encoder
}

// NewDiskSaver は新しいDiskSaverを作成します
func NewDiskSaver(fs interfaces.FileSystem, root, imageFormat string) (*DiskSaver, error) {
	ext, encoder, err := ImageEncoder(imageFormat)
	if err != nil {
		return nil, err
	}
	return &DiskSaver{fs: fs, root: root, imageExt: ext, encoder: encoder}, nil
}

// Root は出力先ディレクトリを返します
func (s *DiskSaver) Root() string {
	return s.root
}

// SaveFile はデータをそのまま保存します
func (s *DiskSaver) SaveFile(name string, data []byte) error {
	rel, err := SanitizePath(name)
	if err != nil {
		return err
	}
	outPath := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := s.fs.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}
	if err := s.fs.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFile, outPath, err)
	}
	return nil
}

// SaveImage は画像をエンコードし、拡張子を置き換えて保存します
func (s *DiskSaver) SaveImage(name string, img image.Image) error {
	var buf bytes.Buffer
	if err := s.encoder(&buf, img); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncodeImage, name, err)
	}
	return s.SaveFile(ReplaceExt(strings.ReplaceAll(name, `\`, "/"), s.imageExt), buf.Bytes())
}

// DryRunSaver は何も書き込まずに保存予定のパスを記録します
type DryRunSaver struct {
	mu     sync.Mutex
	files  []string
	images []string
}

// NewDryRunSaver は新しいDryRunSaverを作成します
func NewDryRunSaver() *DryRunSaver {
	return &DryRunSaver{}
}

// SaveFile はパスを検証して記録します
func (s *DryRunSaver) SaveFile(name string, data []byte) error {
	rel, err := SanitizePath(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, rel)
	return nil
}

// SaveImage はパスを検証して記録します
func (s *DryRunSaver) SaveImage(name string, img image.Image) error {
	rel, err := SanitizePath(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, rel)
	return nil
}

// Files は記録したファイルのパスを返します
func (s *DryRunSaver) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Images は記録した画像のパスを返します
func (s *DryRunSaver) Images() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.images...)
}
