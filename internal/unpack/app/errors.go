package app

import "errors"

var (
	// ErrArchivesFailed は1つ以上のアーカイブの処理に失敗した場合のエラー
	ErrArchivesFailed = errors.New("一部のアーカイブの処理に失敗しました")

	// ErrPrepareOutput は出力先の準備に失敗した場合のエラー
	ErrPrepareOutput = errors.New("出力先の準備に失敗しました")
)
