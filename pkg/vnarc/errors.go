package vnarc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRecognized は認識プローブで構造が一致しなかった場合のエラー
	ErrNotRecognized = errors.New("アーカイブ形式が一致しません")

	// ErrUnrecognizedFormat はどのデコーダも認識しなかった場合のエラー
	ErrUnrecognizedFormat = errors.New("対応するアーカイブ形式が見つかりませんでした")

	// ErrUnknownFormat は指定された形式名が登録されていない場合のエラー
	ErrUnknownFormat = errors.New("不明なアーカイブ形式です")

	// ErrBadDataOffset はエントリの範囲がアーカイブの外を指している場合のエラー
	ErrBadDataOffset = errors.New("エントリの範囲がアーカイブの外を指しています")

	// ErrTruncatedTable はエントリテーブルが途中で切れている場合のエラー
	ErrTruncatedTable = errors.New("エントリテーブルが途中で切れています")

	// ErrEmptyName はエントリ名が空の場合のエラー
	ErrEmptyName = errors.New("エントリ名が空です")

	// ErrBadCompressedHeader は圧縮エントリのサブヘッダが不正な場合のエラー
	ErrBadCompressedHeader = errors.New("圧縮ヘッダが不正です")

	// ErrShortRead はアーカイブの読み込みが途中で終わった場合のエラー
	ErrShortRead = errors.New("アーカイブの読み込みが途中で終わりました")

	// ErrVersionRequired はPAKバージョンが指定されていない場合のエラー
	ErrVersionRequired = errors.New("PAKバージョンを -pak-version で指定してください (1 または 2)")

	// ErrInvalidVersion はPAKバージョンが1でも2でもない場合のエラー
	ErrInvalidVersion = errors.New("PAKバージョンは 1 か 2 のみ指定できます")

	// ErrEntryConsumed は合成済みのエントリを抽出しようとした場合のエラー
	ErrEntryConsumed = errors.New("エントリは既に合成済みです")

	// ErrEntryIndex はエントリ番号が範囲外の場合のエラー
	ErrEntryIndex = errors.New("エントリ番号が範囲外です")
)

// NotRecognizedError は認識プローブが失敗した理由を保持します
type NotRecognizedError struct {
	Format string // 試した形式
	Reason error  // 一致しなかった理由
}

// Error はエラーメッセージを返します
func (e *NotRecognizedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Reason)
}

// Unwrap は元のエラーを返します
func (e *NotRecognizedError) Unwrap() error {
	return e.Reason
}

// Is は ErrNotRecognized との比較を可能にします
func (e *NotRecognizedError) Is(target error) bool {
	return target == ErrNotRecognized
}

func notRecognizedf(format, msg string, args ...any) error {
	return &NotRecognizedError{Format: format, Reason: fmt.Errorf(msg, args...)}
}

// mismatch は err を認識失敗として包みます
func mismatch(format string, err error) error {
	if errors.Is(err, ErrNotRecognized) {
		return err
	}
	return &NotRecognizedError{Format: format, Reason: err}
}

// IsConfigError はユーザーの設定で解決すべきエラーかどうかを返します
func IsConfigError(err error) bool {
	return errors.Is(err, ErrVersionRequired) || errors.Is(err, ErrInvalidVersion)
}
