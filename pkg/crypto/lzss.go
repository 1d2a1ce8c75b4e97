package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// LeafDictSizeV1 は PAK1 バージョン1の辞書サイズ
	LeafDictSizeV1 = 0x1000
	// LeafDictSizeV2 は PAK1 バージョン2の辞書サイズ
	LeafDictSizeV2 = 0x800

	lzssMinMatch    = 3
	lzssExtendedLen = 0x0F
)

var (
	// ErrMalformedStream は出力が埋まる前に入力が尽きた場合などのエラー
	ErrMalformedStream = errors.New("圧縮データが不正です")

	// ErrInvalidDictSize は辞書サイズが不正な場合のエラー
	ErrInvalidDictSize = errors.New("辞書サイズが不正です")
)

// dictWindow は解凍1回分だけ生存する循環辞書です。
type dictWindow struct {
	buf    []byte
	cursor int
	fill   int
}

func newDictWindow(capacity int) *dictWindow {
	return &dictWindow{buf: make([]byte, capacity)}
}

// put は書き込みカーソル位置に1バイト追加します。fill は容量で飽和します。
func (d *dictWindow) put(b byte) {
	d.buf[d.cursor] = b
	d.cursor = (d.cursor + 1) % len(d.buf)
	if d.fill < len(d.buf) {
		d.fill++
	}
}

// at は pos のバイトを返します。pos は [0, 容量) に収まっている必要があります。
func (d *dictWindow) at(pos int) (byte, bool) {
	if pos < 0 || pos >= len(d.buf) {
		return 0, false
	}
	return d.buf[pos], true
}

// lzssInput は入力バイト列の読み取り位置を管理します。
type lzssInput struct {
	data []byte
	pos  int
}

func (in *lzssInput) readByte() (byte, bool) {
	if in.pos >= len(in.data) {
		return 0, false
	}
	b := in.data[in.pos]
	in.pos++
	return b, true
}

func (in *lzssInput) readUint16() (uint16, bool) {
	if in.pos+2 > len(in.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(in.data[in.pos:])
	in.pos += 2
	return v, true
}

// DecompressLeafLZSS は Leaf PAK1 で使われる LZSS 変種を解凍します。
//
// 通常の LZSS との違い:
//   - 辞書の書き込み開始位置は 0
//   - 繰り返し数が 0x0F のとき追加の1バイトを加算する
//   - 参照位置は辞書の現在の充填量 (fill) で折り返す
//
// 参照コピー中に出力したバイトは即座に辞書へ戻すため、
// 同じトークン内で書いたばかりのバイトを読み返すことができます。
// 出力がちょうど outputSize バイトになるまで処理し、
// 途中で入力が尽きた場合は ErrMalformedStream を返します。
func DecompressLeafLZSS(input []byte, outputSize, dictCapacity int) ([]byte, error) {
	if dictCapacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDictSize, dictCapacity)
	}
	if outputSize < 0 {
		return nil, fmt.Errorf("%w: 出力サイズが負です (%d)", ErrMalformedStream, outputSize)
	}

	output := make([]byte, outputSize)
	dict := newDictWindow(dictCapacity)
	in := &lzssInput{data: input}
	o := 0

	malformed := func(reason string) error {
		return fmt.Errorf("%w: %s (入力 %d/%d, 出力 %d/%d)", ErrMalformedStream, reason, in.pos, len(input), o, outputSize)
	}

	var control uint16
	for o < outputSize {
		control >>= 1
		if control&0x100 == 0 {
			b, ok := in.readByte()
			if !ok {
				return nil, malformed("制御バイトがありません")
			}
			control = uint16(b) | 0xFF00
		}

		if control&1 != 0 {
			// リテラル
			b, ok := in.readByte()
			if !ok {
				return nil, malformed("リテラルがありません")
			}
			output[o] = b
			o++
			dict.put(b)
			continue
		}

		// 辞書参照
		word, ok := in.readUint16()
		if !ok {
			return nil, malformed("参照語がありません")
		}
		pos := int(word >> 4)
		count := int(word & 0x0F)
		if count == lzssExtendedLen {
			extra, ok := in.readByte()
			if !ok {
				return nil, malformed("追加の繰り返し数がありません")
			}
			count += int(extra)
		}
		count += lzssMinMatch

		if dict.fill == 0 {
			return nil, malformed("空の辞書を参照しました")
		}

		for ; count > 0 && o < outputSize; count-- {
			b, ok := dict.at(pos)
			if !ok {
				return nil, malformed(fmt.Sprintf("辞書位置 0x%X が範囲外です", pos))
			}
			output[o] = b
			o++
			dict.put(b)
			pos = (pos + 1) % dict.fill
		}
	}

	return output, nil
}
