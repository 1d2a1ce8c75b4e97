package crypto

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

// compressLeafLZSS は DecompressLeafLZSS と互換のトークン列を生成する参照エンコーダです。
// 貪欲法で、3バイトの先頭一致ごとに直近32候補までを探索します。
func compressLeafLZSS(src []byte, capacity int) []byte {
	const maxMatch = lzssMinMatch + lzssExtendedLen + 0xFF

	var out []byte
	heads := make(map[[3]byte][]int)
	flagPos, bit := 0, 0

	for i := 0; i < len(src); {
		if bit == 0 {
			flagPos = len(out)
			out = append(out, 0)
		}

		bestLen, bestPos := 0, 0
		if i+lzssMinMatch <= len(src) {
			cands := heads[[3]byte{src[i], src[i+1], src[i+2]}]
			for k := len(cands) - 1; k >= 0 && k >= len(cands)-32; k-- {
				j := cands[k]
				if i-j > capacity {
					break
				}
				l := 0
				for l < maxMatch && i+l < len(src) && src[j+l] == src[i+l] {
					l++
				}
				if l > bestLen {
					bestLen, bestPos = l, j
				}
			}
		}

		advance := 1
		if bestLen >= lzssMinMatch {
			pos := bestPos % capacity
			n := bestLen - lzssMinMatch
			if n >= lzssExtendedLen {
				word := uint16(pos<<4 | lzssExtendedLen)
				out = append(out, byte(word), byte(word>>8), byte(n-lzssExtendedLen))
			} else {
				word := uint16(pos<<4 | n)
				out = append(out, byte(word), byte(word>>8))
			}
			advance = bestLen
		} else {
			out[flagPos] |= 1 << bit
			out = append(out, src[i])
		}

		for k := i; k < i+advance; k++ {
			if k+lzssMinMatch <= len(src) {
				key := [3]byte{src[k], src[k+1], src[k+2]}
				heads[key] = append(heads[key], k)
			}
		}
		i += advance
		bit = (bit + 1) % 8
	}
	return out
}

// naiveSelfCopy は距離 distance から count バイトを1バイトずつ自己コピーします。
func naiveSelfCopy(history []byte, distance, count int) []byte {
	out := append([]byte(nil), history...)
	for i := 0; i < count; i++ {
		out = append(out, out[len(out)-distance])
	}
	return out
}

// synthData は繰り返しとランダムを混ぜたテストデータを生成します。
func synthData(rng *rand.Rand, n int) []byte {
	alpha := rng.Intn(256) + 1
	data := make([]byte, 0, n)
	for len(data) < n {
		if len(data) > 0 && rng.Intn(2) == 0 {
			start := rng.Intn(len(data))
			length := rng.Intn(300) + 1
			for k := 0; k < length; k++ {
				data = append(data, data[start+k])
			}
			continue
		}
		for k := rng.Intn(50) + 1; k > 0; k-- {
			data = append(data, byte(rng.Intn(alpha)))
		}
	}
	return data[:n]
}

func TestDecompressLeafLZSS_Tokens(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		outputSize int
		want       []byte
	}{
		{
			name:       "リテラルのみ",
			input:      []byte{0x07, 'A', 'B', 'C'},
			outputSize: 3,
			want:       []byte("ABC"),
		},
		{
			name:       "書き込み中のバイトを読み返す参照",
			input:      []byte{0x03, 'a', 'b', 0x11, 0x00},
			outputSize: 6,
			want:       []byte("abbbbb"),
		},
		{
			name:       "追加バイトによる繰り返し数の拡張",
			input:      []byte{0x01, 'x', 0x0F, 0x00, 0x02},
			outputSize: 21,
			want:       bytes.Repeat([]byte("x"), 21),
		},
		{
			name:       "出力サイズで参照コピーを打ち切る",
			input:      []byte{0x01, 'x', 0x0F, 0x00, 0x02},
			outputSize: 10,
			want:       bytes.Repeat([]byte("x"), 10),
		},
		{
			name:       "出力サイズ0",
			input:      nil,
			outputSize: 0,
			want:       []byte{},
		},
		{
			name: "9個目のトークンで制御バイトを再読込する",
			input: []byte{
				0xFF, '1', '2', '3', '4', '5', '6', '7', '8',
				0x01, '9',
			},
			outputSize: 9,
			want:       []byte("123456789"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecompressLeafLZSS(tt.input, tt.outputSize, LeafDictSizeV1)
			if err != nil {
				t.Fatalf("DecompressLeafLZSS() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("DecompressLeafLZSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecompressLeafLZSS_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		outputSize int
		dictSize   int
	}{
		{"空入力", nil, 1, LeafDictSizeV1},
		{"リテラル欠落", []byte{0x01}, 1, LeafDictSizeV1},
		{"参照語が1バイトしかない", []byte{0x01, 'a', 0x10}, 3, LeafDictSizeV1},
		{"追加バイト欠落", []byte{0x01, 'a', 0x0F, 0x00}, 20, LeafDictSizeV1},
		{"空の辞書を参照", []byte{0x00, 0x00, 0x00}, 3, LeafDictSizeV1},
		{"辞書容量を超える位置", []byte{0x01, 'a', 0x00, 0x90}, 4, LeafDictSizeV2},
		{"出力が埋まる前に入力が尽きる", []byte{0x03, 'a', 'b'}, 8, LeafDictSizeV1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecompressLeafLZSS(tt.input, tt.outputSize, tt.dictSize)
			if !errors.Is(err, ErrMalformedStream) {
				t.Errorf("DecompressLeafLZSS() error = %v, want ErrMalformedStream", err)
			}
		})
	}
}

func TestDecompressLeafLZSS_InvalidDictSize(t *testing.T) {
	_, err := DecompressLeafLZSS([]byte{0x01, 'a'}, 1, 0)
	if !errors.Is(err, ErrInvalidDictSize) {
		t.Errorf("error = %v, want ErrInvalidDictSize", err)
	}
}

func TestDecompressLeafLZSS_PartiallyFilledDictionary(t *testing.T) {
	// 容量内だが未書き込みの位置は0を返し、その後は現在の fill で折り返す
	input := []byte{0x01, 'a', 0x10, 0x90}
	got, err := DecompressLeafLZSS(input, 4, LeafDictSizeV1)
	if err != nil {
		t.Fatalf("DecompressLeafLZSS() error = %v", err)
	}
	// 位置0x901 -> 0, fill=2 なので次は 0x902%2=0 -> 'a', 次は 1%3=1 -> 0
	want := []byte{'a', 0x00, 'a', 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("DecompressLeafLZSS() = % x, want % x", got, want)
	}
}

func TestDecompressLeafLZSS_SelfCopyMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		prefixLen := rng.Intn(40) + 1
		prefix := make([]byte, prefixLen)
		for i := range prefix {
			prefix[i] = byte(rng.Intn(256))
		}
		pos := rng.Intn(prefixLen)
		extra := rng.Intn(100)
		count := lzssMinMatch + extra

		// リテラル群 + 参照1個のストリームを組み立てる
		var input []byte
		bit := 0
		flagPos := 0
		for _, b := range prefix {
			if bit == 0 {
				flagPos = len(input)
				input = append(input, 0)
			}
			input[flagPos] |= 1 << bit
			input = append(input, b)
			bit = (bit + 1) % 8
		}
		if bit == 0 {
			input = append(input, 0)
		}
		if extra >= lzssExtendedLen {
			word := uint16(pos<<4 | lzssExtendedLen)
			input = append(input, byte(word), byte(word>>8), byte(extra-lzssExtendedLen))
		} else {
			word := uint16(pos<<4 | extra)
			input = append(input, byte(word), byte(word>>8))
		}

		want := naiveSelfCopy(prefix, prefixLen-pos, count)
		got, err := DecompressLeafLZSS(input, len(want), LeafDictSizeV2)
		if err != nil {
			t.Fatalf("iter=%d: DecompressLeafLZSS() error = %v", iter, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("iter=%d: 自己コピー結果が異なる\ngot  % x\nwant % x", iter, got, want)
		}
	}
}

func TestDecompressLeafLZSS_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, dictSize := range []int{LeafDictSizeV2, LeafDictSizeV1} {
		for iter := 0; iter < 10; iter++ {
			src := synthData(rng, rng.Intn(30000))
			compressed := compressLeafLZSS(src, dictSize)

			got, err := DecompressLeafLZSS(compressed, len(src), dictSize)
			if err != nil {
				t.Fatalf("dict=0x%X iter=%d: error = %v", dictSize, iter, err)
			}
			if !bytes.Equal(got, src) {
				t.Fatalf("dict=0x%X iter=%d: 往復結果が一致しない (len=%d)", dictSize, iter, len(src))
			}
		}
	}
}

func FuzzDecompressLeafLZSS_RoundTrip(f *testing.F) {
	f.Add([]byte("hello hello hello"))
	f.Add([]byte(""))
	f.Add(bytes.Repeat([]byte{0}, 5000))
	f.Add([]byte("abcabcabcabcabcabcabcabcabcabcabcabcabcabc"))

	f.Fuzz(func(t *testing.T, src []byte) {
		for _, dictSize := range []int{LeafDictSizeV2, LeafDictSizeV1} {
			got, err := DecompressLeafLZSS(compressLeafLZSS(src, dictSize), len(src), dictSize)
			if err != nil {
				t.Fatalf("dict=0x%X: error = %v", dictSize, err)
			}
			if !bytes.Equal(got, src) {
				t.Fatalf("dict=0x%X: 往復結果が一致しない", dictSize)
			}
		}
	})
}

func FuzzDecompressLeafLZSS_Arbitrary(f *testing.F) {
	f.Add([]byte{0x03, 'a', 'b', 0x11, 0x00}, uint16(6))
	f.Add([]byte{0x00, 0xFF, 0xFF}, uint16(100))

	f.Fuzz(func(t *testing.T, input []byte, size uint16) {
		// 任意の入力でパニックせず、成功時は必ず要求サイズを返す
		for _, dictSize := range []int{LeafDictSizeV2, LeafDictSizeV1} {
			got, err := DecompressLeafLZSS(input, int(size), dictSize)
			if err != nil {
				if !errors.Is(err, ErrMalformedStream) {
					t.Fatalf("想定外のエラー: %v", err)
				}
				continue
			}
			if len(got) != int(size) {
				t.Fatalf("出力サイズ %d, want %d", len(got), size)
			}
		}
	})
}
