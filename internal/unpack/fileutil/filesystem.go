package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shiroemons/go-vnunpack/internal/unpack/interfaces"
)

// ArchiveExtensions はディレクトリ指定時に対象とするアーカイブの拡張子
var ArchiveExtensions = []string{".pak", ".dat"}

// OSFileSystem は実際のOSファイルシステムを使用する実装
type OSFileSystem struct{}

// NewOSFileSystem は新しいOSFileSystemを作成します
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// FileExists はファイルが存在するか確認します
func (fs *OSFileSystem) FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// Open はファイルを読み込み用に開きます
func (fs *OSFileSystem) Open(filename string) (io.ReadSeekCloser, error) {
	return os.Open(filename)
}

// WriteFile はファイルを書き込みます
func (fs *OSFileSystem) WriteFile(filename string, data []byte, perm uint32) error {
	return os.WriteFile(filename, data, os.FileMode(perm))
}

// MkdirAll はディレクトリを作成します
func (fs *OSFileSystem) MkdirAll(path string, perm uint32) error {
	return os.MkdirAll(path, os.FileMode(perm))
}

// Stat はファイル情報を取得します
func (fs *OSFileSystem) Stat(name string) (interfaces.FileInfo, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	return &osFileInfo{info}, nil
}

// ReadDir はディレクトリを読み込みます
func (fs *OSFileSystem) ReadDir(dirname string) ([]interfaces.DirEntry, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	result := make([]interfaces.DirEntry, len(entries))
	for i, entry := range entries {
		result[i] = &osDirEntry{entry}
	}
	return result, nil
}

// osFileInfo はos.FileInfoのラッパー
type osFileInfo struct {
	os.FileInfo
}

// osDirEntry はos.DirEntryのラッパー
type osDirEntry struct {
	os.DirEntry
}

// ArchiveFinder はコマンドライン引数からアーカイブファイルの一覧を作ります
type ArchiveFinder struct {
	fs interfaces.FileSystem
}

// NewArchiveFinder は新しいArchiveFinderを作成します
func NewArchiveFinder(fs interfaces.FileSystem) *ArchiveFinder {
	return &ArchiveFinder{fs: fs}
}

// Expand はディレクトリを中のアーカイブファイルに展開します。
// ファイルはそのまま、存在しないパスはエラーになります。
func (f *ArchiveFinder) Expand(paths []string) ([]string, error) {
	var result []string
	for _, p := range paths {
		info, err := f.fs.Stat(p)
		if err != nil {
			return nil, &PathError{Path: p, Err: ErrNotFound}
		}
		if !info.IsDir() {
			result = append(result, p)
			continue
		}

		found, err := f.findInDir(p)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, &PathError{Path: p, Err: ErrNoArchivesInDirectory}
		}
		result = append(result, found...)
	}
	return result, nil
}

// findInDir は指定されたディレクトリ直下のアーカイブファイルを名前順に返します
func (f *ArchiveFinder) findInDir(dir string) ([]string, error) {
	entries, err := f.fs.ReadDir(dir)
	if err != nil {
		return nil, &PathError{Path: dir, Err: err}
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsArchiveName(entry.Name()) {
			found = append(found, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

// IsArchiveName はファイル名がアーカイブの拡張子を持つかを返します
func IsArchiveName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ArchiveExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
