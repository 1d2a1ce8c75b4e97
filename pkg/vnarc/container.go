package vnarc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Container はアーカイブ全体へのランダムアクセスを提供します。
//
// 読み込みは常にシークしてから行うため、1つの Container を
// 複数の goroutine から同時に使ってはいけません。
type Container struct {
	rs   io.ReadSeeker
	size int64
}

// NewContainer は rs からContainerを作成します。サイズは末尾へのシークで一度だけ測ります。
func NewContainer(rs io.ReadSeeker) (*Container, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("アーカイブのサイズを取得できません: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("アーカイブの先頭に戻れません: %w", err)
	}
	return &Container{rs: rs, size: size}, nil
}

// NewContainerBytes はメモリ上のデータからContainerを作成します
func NewContainerBytes(data []byte) *Container {
	return &Container{rs: bytes.NewReader(data), size: int64(len(data))}
}

// Size はアーカイブ全体のバイト数を返します
func (c *Container) Size() int64 {
	return c.size
}

// ReadBytes は offset から n バイトを読み込みます
func (c *Container) ReadBytes(offset int64, n int) ([]byte, error) {
	if n < 0 || offset < 0 || offset > c.size || int64(n) > c.size-offset {
		return nil, fmt.Errorf("%w: offset=0x%X size=0x%X (アーカイブ 0x%X)", ErrShortRead, offset, n, c.size)
	}
	if _, err := c.rs.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.rs, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrShortRead, err)
		}
		return nil, err
	}
	return buf, nil
}

// checkExtent はエントリがアーカイブ内に収まっているかを確認します
func (c *Container) checkExtent(e Entry) error {
	if e.End() > uint64(c.size) {
		return fmt.Errorf("%w: %s (offset=0x%X size=0x%X, アーカイブ 0x%X)", ErrBadDataOffset, e.Path, e.Offset, e.Size, c.size)
	}
	return nil
}

// tableReader はメモリ上のテーブルを先頭から順に読みます
type tableReader struct {
	data []byte
	pos  int
}

func (r *tableReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: 位置 %d で %d バイトを要求 (テーブル %d バイト)", ErrTruncatedTable, r.pos, n, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *tableReader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *tableReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// remaining は未読のバイト数を返します
func (r *tableReader) remaining() int {
	return len(r.data) - r.pos
}
