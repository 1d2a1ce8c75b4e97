package vnarc

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// TextDecoder はエントリ名をUTF-8に変換します
type TextDecoder interface {
	Decode(raw []byte) (string, error)
}

// TextDecoderFunc は関数をTextDecoderとして扱います
type TextDecoderFunc func(raw []byte) (string, error)

// Decode は f(raw) を呼び出します
func (f TextDecoderFunc) Decode(raw []byte) (string, error) {
	return f(raw)
}

// ShiftJIS はShift-JISのエントリ名を変換するデコーダです
var ShiftJIS TextDecoder = TextDecoderFunc(fromShiftJIS)

// UTF8 は変換を行わないデコーダです
var UTF8 TextDecoder = TextDecoderFunc(func(raw []byte) (string, error) {
	return string(raw), nil
})

func fromShiftJIS(raw []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
