package vnarc

import (
	"encoding/binary"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/shiroemons/go-vnunpack/pkg/crypto"
	"github.com/shiroemons/go-vnunpack/pkg/vnarc/vnarctest"
)

// sjis はテスト用にUTF-8文字列をShift-JISに変換します
func sjis(t testing.TB, s string) []byte {
	t.Helper()
	b, err := vnarctest.ShiftJIS(s)
	if err != nil {
		t.Fatalf("Shift-JISへの変換に失敗: %v", err)
	}
	return b
}

type testFile struct {
	name       string
	data       []byte
	compressed bool // pak1のみ
}

// pak2Row は暗号化前のテーブル行です
type pak2Row struct {
	offset uint32
	size   uint32
	name   []byte
}

// buildPak2Raw は行と本体を指定してpak2アーカイブを組み立てます
func buildPak2Raw(count uint16, rows []pak2Row, body []byte) []byte {
	var table []byte
	for _, r := range rows {
		table = binary.LittleEndian.AppendUint32(table, r.offset)
		table = binary.LittleEndian.AppendUint32(table, r.size)
		table = append(table, byte(len(r.name)))
		table = append(table, r.name...)
	}
	crypto.MTXORDecrypt(table, uint32(len(table))+pak2HeaderSize, pak2KeyA, pak2KeyB, pak2KeyDelta)

	out := binary.LittleEndian.AppendUint16(nil, count)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(table)))
	out = append(out, table...)
	return append(out, body...)
}

// buildPak2 はファイル一覧から正しいpak2アーカイブを組み立てます
func buildPak2(t testing.TB, files []testFile) []byte {
	t.Helper()
	b, err := vnarctest.Pak2(toFiles(files))
	if err != nil {
		t.Fatalf("pak2の組み立てに失敗: %v", err)
	}
	return b
}

func toFiles(files []testFile) []vnarctest.File {
	out := make([]vnarctest.File, len(files))
	for i, f := range files {
		out[i] = vnarctest.File{Name: f.name, Data: f.data, Compressed: f.compressed}
	}
	return out
}

// pak1Row はテーブル行です
type pak1Row struct {
	name       []byte
	size       uint32
	compressed uint32
	offset     uint32
}

// buildPak1Raw は行と本体を指定してpak1アーカイブを組み立てます
func buildPak1Raw(rows []pak1Row, body []byte) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(rows)))
	for _, r := range rows {
		name := make([]byte, pak1NameSize)
		copy(name, r.name)
		out = append(out, name...)
		out = binary.LittleEndian.AppendUint32(out, r.size)
		out = binary.LittleEndian.AppendUint32(out, r.compressed)
		out = binary.LittleEndian.AppendUint32(out, r.offset)
	}
	return append(out, body...)
}

// buildPak1 はファイル一覧から正しいpak1アーカイブを組み立てます。
// data が nil のファイルはサイズ0の行になります。
func buildPak1(t testing.TB, files []testFile) []byte {
	t.Helper()
	b, err := vnarctest.Pak1(toFiles(files))
	if err != nil {
		t.Fatalf("pak1の組み立てに失敗: %v", err)
	}
	return b
}

// stubComposer は合成の呼び出しを記録します
type stubComposer struct {
	err   error
	calls [][3][]byte
}

func (c *stubComposer) Compose(sprite, palette, mask []byte) (image.Image, error) {
	c.calls = append(c.calls, [3][]byte{sprite, palette, mask})
	if c.err != nil {
		return nil, c.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

// memorySaver は保存内容をメモリに記録します
type memorySaver struct {
	mu     sync.Mutex
	files  map[string][]byte
	images []string
	fail   map[string]bool
}

func newMemorySaver() *memorySaver {
	return &memorySaver{files: map[string][]byte{}, fail: map[string]bool{}}
}

func (s *memorySaver) SaveFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[path] {
		return fmt.Errorf("保存に失敗: %s", path)
	}
	s.files[path] = data
	return nil
}

func (s *memorySaver) SaveImage(path string, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[path] {
		return fmt.Errorf("保存に失敗: %s", path)
	}
	s.images = append(s.images, path)
	return nil
}
