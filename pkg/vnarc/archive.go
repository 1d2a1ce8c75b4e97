// Package vnarc はビジュアルノベル向けゲームエンジンのアーカイブ（.pakファイル）を読み込むためのパッケージです。
//
// サポートするアーカイブ形式:
//   - twilight-frontier/pak2: テーブルが暗号化された形式
//   - leaf/pak1: LZSS圧縮されたエントリを含む形式 (バージョン指定が必要)
//
// 基本的な使い方:
//
//	registry := vnarc.DefaultRegistry()
//	c, _ := vnarc.NewContainer(f)
//	dec, err := registry.Recognize(c)
//	if err != nil {
//	    return err
//	}
//	meta, _ := dec.ReadMeta(c)
//	for _, i := range meta.Remaining() {
//	    data, _ := dec.ReadEntry(c, meta, i)
//	    // データを処理...
//	}
package vnarc

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
)

// Entry はアーカイブ内の1ファイルを表します
type Entry struct {
	Path       string // 仮想パス (UTF-8)
	Offset     uint32 // アーカイブ内の開始位置
	Size       uint32 // アーカイブ内のバイト数
	Compressed bool   // 辞書圧縮されているか
}

// End はエントリの終端位置を返します
func (e Entry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Size)
}

// Meta はアーカイブのエントリ一覧を保持します。
// consumed はエントリ番号で引く別テーブルで、前処理で合成に使われたエントリを記録します。
type Meta struct {
	Format  string
	Entries []Entry

	consumed []bool
}

// NewMeta は空のMetaを作成します
func NewMeta(format string) *Meta {
	return &Meta{Format: format}
}

// Add はエントリをテーブル順に追加します
func (m *Meta) Add(e Entry) {
	m.Entries = append(m.Entries, e)
	m.consumed = append(m.consumed, false)
}

// Len はエントリ数を返します
func (m *Meta) Len() int {
	return len(m.Entries)
}

// Entry は i 番目のエントリを返します
func (m *Meta) Entry(i int) (Entry, error) {
	if i < 0 || i >= len(m.Entries) {
		return Entry{}, fmt.Errorf("%w: %d (エントリ数 %d)", ErrEntryIndex, i, len(m.Entries))
	}
	return m.Entries[i], nil
}

// MarkConsumed は i 番目のエントリを合成済みにします
func (m *Meta) MarkConsumed(i int) {
	if i < 0 || i >= len(m.Entries) {
		return
	}
	for len(m.consumed) < len(m.Entries) {
		m.consumed = append(m.consumed, false)
	}
	m.consumed[i] = true
}

// Consumed は i 番目のエントリが合成済みかどうかを返します
func (m *Meta) Consumed(i int) bool {
	return i >= 0 && i < len(m.consumed) && m.consumed[i]
}

// Remaining は合成済みでないエントリ番号をテーブル順に返します
func (m *Meta) Remaining() []int {
	idx := make([]int, 0, len(m.Entries))
	for i := range m.Entries {
		if !m.Consumed(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Recognition は認識プローブの結果です
type Recognition struct {
	Format  string
	Entries int   // 認識できた場合のエントリ数
	Reason  error // 認識できなかった理由 (nil なら認識成功)
}

// Recognized は認識に成功したかどうかを返します
func (r Recognition) Recognized() bool {
	return r.Reason == nil
}

// Decoder はアーカイブ形式ごとのデコーダが実装するインターフェース
type Decoder interface {
	// Name は形式名を返します
	Name() string

	// Probe はContainerがこの形式かどうかを調べます。状態を変更しません。
	Probe(c *Container) Recognition

	// ReadMeta はエントリテーブルを読み込みます
	ReadMeta(c *Container) (*Meta, error)

	// ReadEntry は index 番目のエントリの中身を返します
	ReadEntry(c *Container, meta *Meta, index int) ([]byte, error)
}

// Preprocessor は個別抽出の前に複数エントリをまとめて処理するデコーダが実装します
type Preprocessor interface {
	// Preprocess は合成できたグループを saver に保存し、合成数を返します
	Preprocess(c *Container, meta *Meta, composer Composer, saver Saver) (int, error)
}

// ConfigChecker は抽出前に設定が必要なデコーダが実装します
type ConfigChecker interface {
	// CheckConfig は抽出に必要な設定が揃っているかを返します
	CheckConfig() error
}

// Linker は中身の解釈に使う関連形式を持つデコーダが実装します
type Linker interface {
	LinkedFormats() []string
}

// LinkedFormats は d が Linker なら関連形式を返します
func LinkedFormats(d Decoder) []string {
	if l, ok := d.(Linker); ok {
		return l.LinkedFormats()
	}
	return nil
}

// Composer はスプライト・パレット・マスクから画像を合成します
type Composer interface {
	Compose(sprite, palette, mask []byte) (image.Image, error)
}

// Saver は抽出したデータを保存します
type Saver interface {
	SaveFile(path string, data []byte) error
	SaveImage(path string, img image.Image) error
}

// Option はデコーダの設定を変更します
type Option func(*options)

type options struct {
	text   TextDecoder
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		text:   ShiftJIS,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTextDecoder はエントリ名の文字コード変換を差し替えます
func WithTextDecoder(d TextDecoder) Option {
	return func(o *options) {
		if d != nil {
			o.text = d
		}
	}
}

// WithLogger はデコーダのログ出力先を設定します
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// decodeName はNUL終端を取り除いてエントリ名を変換します
func decodeName(text TextDecoder, raw []byte) (string, error) {
	if i := indexNUL(raw); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) == 0 {
		return "", ErrEmptyName
	}
	name, err := text.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("エントリ名の変換に失敗: %w", err)
	}
	name = strings.TrimRight(name, "\x00")
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
