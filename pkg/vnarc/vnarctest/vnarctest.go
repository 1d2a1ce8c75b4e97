// Package vnarctest はテスト用のアーカイブを組み立てる関数を提供します
package vnarctest

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/japanese"

	"github.com/shiroemons/go-vnunpack/pkg/crypto"
)

// File はアーカイブに格納するファイルです
type File struct {
	Name       string
	Data       []byte // pak1 では nil ならサイズ0の行になる
	Compressed bool   // pak1のみ
}

const (
	pak2HeaderSize = 6
	pak1NameSize   = 16
	pak1RowSize    = pak1NameSize + 12
)

// ShiftJIS はUTF-8文字列をShift-JISに変換します
func ShiftJIS(s string) ([]byte, error) {
	return japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
}

// Pak2 はテーブルを暗号化した twilight-frontier/pak2 アーカイブを組み立てます
func Pak2(files []File) ([]byte, error) {
	names := make([][]byte, len(files))
	tableSize := 0
	for i, f := range files {
		name, err := ShiftJIS(f.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if len(name) > 0xFF {
			return nil, fmt.Errorf("%s: 名前が長すぎます", f.Name)
		}
		names[i] = name
		tableSize += 9 + len(name)
	}

	offset := uint32(pak2HeaderSize + tableSize)
	var table, body []byte
	for i, f := range files {
		table = binary.LittleEndian.AppendUint32(table, offset)
		table = binary.LittleEndian.AppendUint32(table, uint32(len(f.Data)))
		table = append(table, byte(len(names[i])))
		table = append(table, names[i]...)

		masked := append([]byte(nil), f.Data...)
		crypto.XOR(masked, byte(offset>>1)|0x23)
		body = append(body, masked...)
		offset += uint32(len(f.Data))
	}
	crypto.MTXORDecrypt(table, uint32(tableSize)+pak2HeaderSize, 0xC5, 0x83, 0x53)

	out := binary.LittleEndian.AppendUint16(nil, uint16(len(files)))
	out = binary.LittleEndian.AppendUint32(out, uint32(tableSize))
	out = append(out, table...)
	return append(out, body...), nil
}

// Pak1 は leaf/pak1 アーカイブを組み立てます。圧縮指定のファイルはリテラルのみで符号化します。
func Pak1(files []File) ([]byte, error) {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(files)))
	offset := uint32(4 + pak1RowSize*len(files))

	var body []byte
	for _, f := range files {
		name, err := ShiftJIS(f.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if len(name) > pak1NameSize {
			return nil, fmt.Errorf("%s: 名前が長すぎます", f.Name)
		}
		field := make([]byte, pak1NameSize)
		copy(field, name)
		out = append(out, field...)

		if f.Data == nil {
			out = append(out, make([]byte, 12)...)
			continue
		}

		payload, flag := f.Data, uint32(0)
		if f.Compressed {
			stream := LiteralLZSS(f.Data)
			payload = binary.LittleEndian.AppendUint32(nil, uint32(8+len(stream)))
			payload = binary.LittleEndian.AppendUint32(payload, uint32(len(f.Data)))
			payload = append(payload, stream...)
			flag = 1
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
		out = binary.LittleEndian.AppendUint32(out, flag)
		out = binary.LittleEndian.AppendUint32(out, offset)
		body = append(body, payload...)
		offset += uint32(len(payload))
	}
	return append(out, body...), nil
}

// LiteralLZSS はリテラルのみのLZSSストリームを生成します
func LiteralLZSS(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); i += 8 {
		out = append(out, 0xFF)
		out = append(out, data[i:min(i+8, len(data))]...)
	}
	return out
}

// Sprite は下の行から格納したスプライトデータを組み立てます
func Sprite(w, h int, pixels []byte) []byte {
	b := binary.LittleEndian.AppendUint16(nil, uint16(w))
	b = binary.LittleEndian.AppendUint16(b, uint16(h))
	return append(b, pixels...)
}
