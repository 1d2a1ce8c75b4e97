// Package interfaces はvnunpackコマンドで使用するインターフェースを定義します
package interfaces

import (
	"context"
	"io"

	"github.com/shiroemons/go-vnunpack/pkg/vnarc"
)

// FileSystem はファイルシステム操作のインターフェース
type FileSystem interface {
	FileExists(filename string) bool
	Open(filename string) (io.ReadSeekCloser, error)
	WriteFile(filename string, data []byte, perm uint32) error
	MkdirAll(path string, perm uint32) error
	Stat(name string) (FileInfo, error)
	ReadDir(dirname string) ([]DirEntry, error)
}

// FileInfo はファイル情報のインターフェース
type FileInfo interface {
	Name() string
	IsDir() bool
}

// DirEntry はディレクトリエントリのインターフェース
type DirEntry interface {
	Name() string
	IsDir() bool
}

// ArchiveExtractor は1つのアーカイブを処理するインターフェース
type ArchiveExtractor interface {
	Extract(ctx context.Context, archivePath string, saver vnarc.Saver) (Summary, error)
	List(ctx context.Context, archivePath string) (Listing, error)
}

// Summary は1アーカイブの抽出結果です
type Summary struct {
	Archive    string
	Format     string
	Entries    int // テーブル上のエントリ数
	Composites int // 合成して保存した画像の数
	Saved      int // 個別に保存したファイルの数
	Failed     int // 保存に失敗したファイルの数
}

// Listing は1アーカイブのエントリ一覧です
type Listing struct {
	Archive string
	Format  string
	Linked  []string // 関連形式
	Entries []vnarc.Entry
}

// Logger はデバッグ出力のインターフェース
type Logger interface {
	Enabled() bool
	Printf(format string, a ...any)
}
