// Package grp はスプライト (.grp)、パレット (.c16)、マスク (.msk) から画像を合成するパッケージです。
//
// スプライトは u16 幅、u16 高さに続く 8bit インデックスの画素列で、
// 下の行から順に格納されています。パレットは 256 色の BGR555 (リトルエンディアン) で、
// マスクは画素ごとのアルファ値です。
package grp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
)

const (
	headerSize    = 4
	paletteColors = 256
	paletteSize   = paletteColors * 2
)

var (
	// ErrInvalidSprite はスプライトのサイズが不正な場合のエラー
	ErrInvalidSprite = errors.New("スプライトデータが不正です")

	// ErrInvalidPalette はパレットが短すぎる場合のエラー
	ErrInvalidPalette = errors.New("パレットデータが不正です")

	// ErrInvalidMask はマスクのサイズがスプライトと一致しない場合のエラー
	ErrInvalidMask = errors.New("マスクデータが不正です")
)

// Codec はスプライトの組を画像に合成します
type Codec struct{}

// NewCodec は新しいCodecを作成します
func NewCodec() *Codec {
	return &Codec{}
}

// Compose は Decode を呼び出します
func (c *Codec) Compose(sprite, palette, mask []byte) (image.Image, error) {
	return Decode(sprite, palette, mask)
}

// Size はスプライトの幅と高さを返します
func Size(sprite []byte) (int, int, error) {
	if len(sprite) < headerSize {
		return 0, 0, fmt.Errorf("%w: ヘッダが足りません (%d バイト)", ErrInvalidSprite, len(sprite))
	}
	w := int(binary.LittleEndian.Uint16(sprite[0:2]))
	h := int(binary.LittleEndian.Uint16(sprite[2:4]))
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("%w: 大きさが0です (%dx%d)", ErrInvalidSprite, w, h)
	}
	if len(sprite) != headerSize+w*h {
		return 0, 0, fmt.Errorf("%w: %dx%d に対して %d バイトです", ErrInvalidSprite, w, h, len(sprite))
	}
	return w, h, nil
}

// Decode はスプライトを上から下の向きの画像に変換します。
// palette が nil ならグレースケール、mask が nil なら不透明になります。
func Decode(sprite, palette, mask []byte) (image.Image, error) {
	w, h, err := Size(sprite)
	if err != nil {
		return nil, err
	}

	pal, err := decodePalette(palette)
	if err != nil {
		return nil, err
	}
	if mask != nil && len(mask) != w*h {
		return nil, fmt.Errorf("%w: %d バイト (期待値 %d)", ErrInvalidMask, len(mask), w*h)
	}

	// 格納順のまま描いてから上下反転する
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	pixels := sprite[headerSize:]
	for i, idx := range pixels {
		c := pal[idx]
		if mask != nil {
			c.A = mask[i]
		}
		img.SetNRGBA(i%w, i/w, c)
	}
	return transform.FlipV(img), nil
}

// decodePalette は BGR555 のパレットを読み込みます
func decodePalette(data []byte) ([paletteColors]color.NRGBA, error) {
	var pal [paletteColors]color.NRGBA
	if data == nil {
		for i := range pal {
			pal[i] = color.NRGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 0xFF}
		}
		return pal, nil
	}
	if len(data) < paletteSize {
		return pal, fmt.Errorf("%w: %d バイト (最低 %d)", ErrInvalidPalette, len(data), paletteSize)
	}
	for i := range pal {
		v := binary.LittleEndian.Uint16(data[i*2:])
		pal[i] = color.NRGBA{
			R: expand5(v >> 10),
			G: expand5(v >> 5),
			B: expand5(v),
			A: 0xFF,
		}
	}
	return pal, nil
}

// expand5 は5ビットの値を8ビットに広げます
func expand5(v uint16) uint8 {
	v &= 0x1F
	return uint8(v<<3 | v>>2)
}

// IsSprite はデータがスプライトとして解釈できるかを返します
func IsSprite(data []byte) bool {
	_, _, err := Size(data)
	return err == nil
}
