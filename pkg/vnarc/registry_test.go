package vnarc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Recognize(t *testing.T) {
	pak2 := buildPak2(t, []testFile{{name: "a.txt", data: []byte("abc")}})
	pak1 := buildPak1(t, []testFile{{name: "a.txt", data: []byte("abc")}})

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"pak2", pak2, Pak2FormatName, false},
		{"pak1", pak1, Pak1FormatName, false},
		{"空のpak2", []byte{0, 0, 0, 0, 0, 0}, Pak2FormatName, false},
		{"無関係なデータ", bytes.Repeat([]byte{0xAB}, 100), "", true},
		{"空ファイル", []byte{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := DefaultRegistry().Recognize(NewContainerBytes(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnrecognizedFormat)
				assert.Nil(t, dec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dec.Name())
		})
	}
}

func TestRegistry_RecognizeIsIdempotent(t *testing.T) {
	archive := buildPak1(t, []testFile{
		{name: "a.grp", data: []byte("sprite"), compressed: true},
		{name: "b.txt", data: []byte("text")},
	})
	c := NewContainerBytes(archive)
	reg := DefaultRegistry()

	first, err := reg.Recognize(c)
	require.NoError(t, err)
	second, err := reg.Recognize(c)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// 認識後もメタデータは新しく読み直せる
	meta, err := first.ReadMeta(c)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Len())
	assert.Equal(t, []int{0, 1}, meta.Remaining())

	for _, d := range reg.Decoders() {
		r1 := d.Probe(c)
		r2 := d.Probe(c)
		assert.Equal(t, r1.Recognized(), r2.Recognized(), d.Name())
		assert.Equal(t, r1.Entries, r2.Entries, d.Name())
	}
}

func TestRegistry_Order(t *testing.T) {
	// 両方が認識できる入力では先に登録した方を返す
	empty := []byte{0, 0, 0, 0, 0, 0}
	pak1 := NewPak1Decoder()
	pak2 := NewPak2Decoder()

	dec, err := NewRegistry(pak2, pak1).Recognize(NewContainerBytes(empty))
	require.NoError(t, err)
	assert.Same(t, Decoder(pak2), dec)

	_, err = NewRegistry(pak1).Recognize(NewContainerBytes(empty))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	assert.ErrorIs(t, err, ErrNotRecognized)
}

func TestRegistry_Empty(t *testing.T) {
	_, err := NewRegistry().Recognize(NewContainerBytes([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{Pak2FormatName, Pak1FormatName}, reg.Names())

	dec, err := reg.Lookup("LEAF/PAK1")
	require.NoError(t, err)
	assert.Equal(t, Pak1FormatName, dec.Name())

	_, err = reg.Lookup("zip")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRegistry_ProbeAll(t *testing.T) {
	archive := buildPak2(t, []testFile{{name: "a", data: []byte("1")}, {name: "b", data: []byte("22")}})
	results := DefaultRegistry().ProbeAll(NewContainerBytes(archive))

	require.Len(t, results, 2)
	assert.True(t, results[0].Recognized())
	assert.Equal(t, 2, results[0].Entries)
	assert.False(t, results[1].Recognized())
}

type plainDecoder struct{ Decoder }

func TestLinkedFormats(t *testing.T) {
	assert.Equal(t, []string{"twilight-frontier/pak2-sfx", "twilight-frontier/pak2-gfx"}, LinkedFormats(NewPak2Decoder()))
	assert.Equal(t, []string{"leaf/grp"}, LinkedFormats(NewPak1Decoder()))
	assert.Nil(t, LinkedFormats(plainDecoder{}))
}
