package fileutil

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound はファイルやディレクトリが見つからない場合のエラー
	ErrNotFound = errors.New("ファイルが見つかりません")

	// ErrNoArchivesInDirectory はディレクトリにアーカイブがない場合のエラー
	ErrNoArchivesInDirectory = errors.New("ディレクトリにアーカイブファイル (.pak, .dat) がありません")

	// ErrUnsafePath はエントリ名が出力先の外を指している場合のエラー
	ErrUnsafePath = errors.New("出力先の外を指すパスです")

	// ErrCreateDirectory は出力先ディレクトリの作成に失敗した場合のエラー
	ErrCreateDirectory = errors.New("出力先ディレクトリの作成に失敗しました")

	// ErrWriteFile はファイルの書き込みに失敗した場合のエラー
	ErrWriteFile = errors.New("ファイルの書き込みに失敗しました")

	// ErrEncodeImage は画像のエンコードに失敗した場合のエラー
	ErrEncodeImage = errors.New("画像のエンコードに失敗しました")

	// ErrUnsupportedImageFormat は未対応の画像形式の場合のエラー
	ErrUnsupportedImageFormat = errors.New("未対応の画像形式です")
)

// PathError はパスに関するエラー
type PathError struct {
	Path string
	Err  error
}

// Error はエラーメッセージを返します
func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap は元のエラーを返します
func (e *PathError) Unwrap() error {
	return e.Err
}
