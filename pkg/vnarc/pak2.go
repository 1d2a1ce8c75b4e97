package vnarc

import (
	"encoding/binary"
	"fmt"

	"github.com/shiroemons/go-vnunpack/pkg/crypto"
)

// Pak2FormatName はテーブル暗号化形式の名前です
const Pak2FormatName = "twilight-frontier/pak2"

const (
	pak2HeaderSize = 6 // u16 エントリ数 + u32 テーブル長

	// エントリあたりの最大バイト数 (offset + size + 名前長 + 名前255バイト + 予備1)
	pak2MaxEntrySize = 4 + 4 + 256 + 1

	pak2KeyA     = 0xC5
	pak2KeyB     = 0x83
	pak2KeyDelta = 0x53
	pak2DataMask = 0x23
)

// Pak2Decoder はテーブルがMT鍵ストリームで暗号化された形式のデコーダです
type Pak2Decoder struct {
	opts options
}

// NewPak2Decoder は新しいPak2Decoderを作成します
func NewPak2Decoder(opts ...Option) *Pak2Decoder {
	return &Pak2Decoder{opts: applyOptions(opts)}
}

// Name は形式名を返します
func (d *Pak2Decoder) Name() string {
	return Pak2FormatName
}

// LinkedFormats は効果音と画像の形式名を返します
func (d *Pak2Decoder) LinkedFormats() []string {
	return []string{Pak2FormatName + "-sfx", Pak2FormatName + "-gfx"}
}

// Probe はエントリテーブル全体を解析して形式を判定します
func (d *Pak2Decoder) Probe(c *Container) Recognition {
	meta, err := d.ReadMeta(c)
	if err != nil {
		return Recognition{Format: d.Name(), Reason: mismatch(d.Name(), err)}
	}
	return Recognition{Format: d.Name(), Entries: meta.Len()}
}

// ReadMeta はヘッダを検証し、テーブルを復号してエントリ一覧を返します
func (d *Pak2Decoder) ReadMeta(c *Container) (*Meta, error) {
	header, err := c.ReadBytes(0, pak2HeaderSize)
	if err != nil {
		return nil, &NotRecognizedError{Format: d.Name(), Reason: err}
	}
	count := binary.LittleEndian.Uint16(header[0:2])
	tableSize := binary.LittleEndian.Uint32(header[2:6])

	// 空アーカイブはヘッダ6バイトのみ
	if count == 0 && c.Size() != pak2HeaderSize {
		return nil, notRecognizedf(d.Name(), "エントリ数が0なのにサイズが %d バイトです", c.Size())
	}
	remaining := c.Size() - pak2HeaderSize
	if int64(tableSize) > remaining {
		return nil, notRecognizedf(d.Name(), "テーブル長 %d が残りのバイト数 %d を超えています", tableSize, remaining)
	}
	if int64(tableSize) > int64(count)*pak2MaxEntrySize {
		return nil, notRecognizedf(d.Name(), "テーブル長 %d がエントリ数 %d に対して大きすぎます", tableSize, count)
	}

	table, err := c.ReadBytes(pak2HeaderSize, int(tableSize))
	if err != nil {
		return nil, err
	}
	crypto.MTXORDecrypt(table, tableSize+pak2HeaderSize, pak2KeyA, pak2KeyB, pak2KeyDelta)

	meta := NewMeta(d.Name())
	r := &tableReader{data: table}
	for i := 0; i < int(count); i++ {
		e, err := d.readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("エントリ %d: %w", i, err)
		}
		if err := c.checkExtent(e); err != nil {
			return nil, err
		}
		meta.Add(e)
	}
	if r.remaining() > 0 {
		d.opts.logger.Debug("テーブル末尾に未使用のバイトがあります", "format", d.Name(), "bytes", r.remaining())
	}
	return meta, nil
}

func (d *Pak2Decoder) readEntry(r *tableReader) (Entry, error) {
	offset, err := r.u32()
	if err != nil {
		return Entry{}, err
	}
	size, err := r.u32()
	if err != nil {
		return Entry{}, err
	}
	nameLen, err := r.u8()
	if err != nil {
		return Entry{}, err
	}
	raw, err := r.take(int(nameLen))
	if err != nil {
		return Entry{}, err
	}
	name, err := decodeName(d.opts.text, raw)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Path: name, Offset: offset, Size: size}, nil
}

// ReadEntry はエントリを読み込み、オフセット由来のキーでマスクを外します
func (d *Pak2Decoder) ReadEntry(c *Container, meta *Meta, index int) ([]byte, error) {
	e, err := meta.Entry(index)
	if err != nil {
		return nil, err
	}
	if meta.Consumed(index) {
		return nil, fmt.Errorf("%w: %s", ErrEntryConsumed, e.Path)
	}
	data, err := c.ReadBytes(int64(e.Offset), int(e.Size))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	return crypto.XOR(data, byte(e.Offset>>1)|pak2DataMask), nil
}
