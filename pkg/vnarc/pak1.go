package vnarc

import (
	"encoding/binary"
	"fmt"

	"github.com/shiroemons/go-vnunpack/pkg/crypto"
)

// Pak1FormatName は辞書圧縮形式の名前です
const Pak1FormatName = "leaf/pak1"

const (
	pak1CountSize     = 4
	pak1NameSize      = 16
	pak1RowSize       = pak1NameSize + 4 + 4 + 4 // 名前 + size + 圧縮フラグ + offset
	pak1SubHeaderSize = 8                        // u32 圧縮後サイズ + u32 元サイズ

	// 展開後サイズの上限
	pak1MaxOriginalSize = 1 << 28
)

// Pak1Decoder はLZSS圧縮されたエントリを含む形式のデコーダです。
// 抽出の前に SetVersion でバージョン (1 または 2) を指定する必要があります。
type Pak1Decoder struct {
	opts    options
	version int
}

// NewPak1Decoder は新しいPak1Decoderを作成します
func NewPak1Decoder(opts ...Option) *Pak1Decoder {
	return &Pak1Decoder{opts: applyOptions(opts)}
}

// Name は形式名を返します
func (d *Pak1Decoder) Name() string {
	return Pak1FormatName
}

// SetVersion は辞書サイズを決めるバージョンを設定します
func (d *Pak1Decoder) SetVersion(v int) error {
	if v != 1 && v != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	d.version = v
	return nil
}

// Version は設定されたバージョンを返します (未設定なら0)
func (d *Pak1Decoder) Version() int {
	return d.version
}

// CheckConfig はバージョンが設定されているかを確認します
func (d *Pak1Decoder) CheckConfig() error {
	if d.version == 0 {
		return ErrVersionRequired
	}
	return nil
}

func (d *Pak1Decoder) dictSize() int {
	if d.version == 1 {
		return crypto.LeafDictSizeV1
	}
	return crypto.LeafDictSizeV2
}

// LinkedFormats はスプライト形式名を返します
func (d *Pak1Decoder) LinkedFormats() []string {
	return []string{"leaf/grp"}
}

// Probe はテーブルを解析し、最後のエントリがアーカイブ末尾で終わるかを確認します
func (d *Pak1Decoder) Probe(c *Container) Recognition {
	meta, err := d.ReadMeta(c)
	if err != nil {
		return Recognition{Format: d.Name(), Reason: mismatch(d.Name(), err)}
	}
	if meta.Len() == 0 {
		return Recognition{Format: d.Name(), Reason: notRecognizedf(d.Name(), "エントリがありません")}
	}
	last := meta.Entries[meta.Len()-1]
	if last.End() != uint64(c.Size()) {
		return Recognition{
			Format: d.Name(),
			Reason: notRecognizedf(d.Name(), "最後のエントリの終端 0x%X がアーカイブサイズ 0x%X と一致しません", last.End(), c.Size()),
		}
	}
	return Recognition{Format: d.Name(), Entries: meta.Len()}
}

// ReadMeta は非暗号化テーブルを読み込みます。サイズ0の行は捨てます。
func (d *Pak1Decoder) ReadMeta(c *Container) (*Meta, error) {
	header, err := c.ReadBytes(0, pak1CountSize)
	if err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(header)

	tableSize := int64(count) * pak1RowSize
	if tableSize > c.Size()-pak1CountSize {
		return nil, fmt.Errorf("%w: エントリ数 %d に対してアーカイブが小さすぎます", ErrTruncatedTable, count)
	}
	table, err := c.ReadBytes(pak1CountSize, int(tableSize))
	if err != nil {
		return nil, err
	}

	meta := NewMeta(d.Name())
	r := &tableReader{data: table}
	for i := 0; i < int(count); i++ {
		raw, err := r.take(pak1NameSize)
		if err != nil {
			return nil, err
		}
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		compressed, err := r.u32()
		if err != nil {
			return nil, err
		}
		offset, err := r.u32()
		if err != nil {
			return nil, err
		}
		if size == 0 {
			continue
		}

		name, err := decodeName(d.opts.text, raw)
		if err != nil {
			return nil, fmt.Errorf("エントリ %d: %w", i, err)
		}
		e := Entry{Path: name, Offset: offset, Size: size, Compressed: compressed > 0}
		if err := c.checkExtent(e); err != nil {
			return nil, err
		}
		meta.Add(e)
	}
	return meta, nil
}

// ReadEntry はエントリを読み込み、圧縮されていれば展開します
func (d *Pak1Decoder) ReadEntry(c *Container, meta *Meta, index int) ([]byte, error) {
	if err := d.CheckConfig(); err != nil {
		return nil, err
	}
	e, err := meta.Entry(index)
	if err != nil {
		return nil, err
	}
	if meta.Consumed(index) {
		return nil, fmt.Errorf("%w: %s", ErrEntryConsumed, e.Path)
	}
	if !e.Compressed {
		data, err := c.ReadBytes(int64(e.Offset), int(e.Size))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Path, err)
		}
		return data, nil
	}

	header, err := c.ReadBytes(int64(e.Offset), pak1SubHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	compSize := binary.LittleEndian.Uint32(header[0:4])
	origSize := binary.LittleEndian.Uint32(header[4:8])
	if compSize < pak1SubHeaderSize || origSize > pak1MaxOriginalSize {
		return nil, fmt.Errorf("%w: %s (圧縮後 %d, 元 %d)", ErrBadCompressedHeader, e.Path, compSize, origSize)
	}

	payload, err := c.ReadBytes(int64(e.Offset)+pak1SubHeaderSize, int(compSize-pak1SubHeaderSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	data, err := crypto.DecompressLeafLZSS(payload, int(origSize), d.dictSize())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	return data, nil
}
