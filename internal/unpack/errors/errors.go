// Package errors はアーカイブ処理のエラー型を提供します
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound はアーカイブファイルを開けない場合のエラー
	ErrFileNotFound = errors.New("ファイルが見つかりません")

	// ErrInvalidArchive はどの形式としても認識できない場合のエラー
	ErrInvalidArchive = errors.New("無効なアーカイブファイルです")
)

// Op はエラーが起きた処理の段階です
type Op string

const (
	OpOpen    Op = "open"
	OpList    Op = "list"
	OpExtract Op = "extract"
)

// ArchiveError は1つのアーカイブの処理中に起きたエラー
type ArchiveError struct {
	Op     Op
	Path   string
	Format string // 認識前なら空
	Err    error
}

func (e *ArchiveError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Format == "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Path, e.Format, e.Err)
	}
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// NewArchiveError は新しいArchiveErrorを作成します
func NewArchiveError(op Op, path, format string, err error) *ArchiveError {
	return &ArchiveError{Op: op, Path: path, Format: format, Err: err}
}

// EntryError はアーカイブ内の1エントリの読み込みに失敗したエラー
type EntryError struct {
	Entry string
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("エントリ #%d %s: %v", e.Index, e.Entry, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// NewEntryError は新しいEntryErrorを作成します
func NewEntryError(index int, entry string, err error) *EntryError {
	return &EntryError{Entry: entry, Index: index, Err: err}
}
