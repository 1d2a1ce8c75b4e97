package crypto

import (
	"testing"
)

func TestRNGMT_KnownSequence(t *testing.T) {
	// MT19937 参照実装 (init_genrand) の出力と一致することを確認
	tests := []struct {
		name string
		seed uint32
		want []uint32
	}{
		{
			name: "シード5489",
			seed: 5489,
			want: []uint32{3499211612, 581869302, 3890346734, 3586334585, 545404204},
		},
		{
			name: "シード1",
			seed: 1,
			want: []uint32{1791095845, 4282876139, 3093770124, 4005303368, 491263},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := NewRNGMT(tt.seed)
			for i, want := range tt.want {
				if got := rng.NextInt32(); got != want {
					t.Errorf("index=%d: got=%d, want=%d", i, got, want)
				}
			}
		})
	}
}

func TestRNGMT_Deterministic(t *testing.T) {
	// 同じシードで初期化すると同じシーケンスが得られることを確認
	rng1 := NewRNGMT(12345)
	rng2 := NewRNGMT(12345)

	// 状態の再生成を複数回またぐ
	for i := 0; i < 2000; i++ {
		v1 := rng1.NextInt32()
		v2 := rng2.NextInt32()
		if v1 != v2 {
			t.Fatalf("シーケンスが異なる: i=%d, v1=0x%08X, v2=0x%08X", i, v1, v2)
		}
	}
}

func TestRNGMT_DifferentSeeds(t *testing.T) {
	rng1 := NewRNGMT(12345)
	rng2 := NewRNGMT(54321)

	allSame := true
	for i := 0; i < 100; i++ {
		if rng1.NextInt32() != rng2.NextInt32() {
			allSame = false
			break
		}
	}
	if allSame {
		t.Error("異なるシードでも同じシーケンスが生成された")
	}
}

func TestRNGMT_Reseed(t *testing.T) {
	rng := NewRNGMT(1)
	for i := 0; i < 700; i++ {
		rng.NextInt32()
	}
	rng.Seed(5489)
	if got := rng.NextInt32(); got != 3499211612 {
		t.Errorf("再シード後の最初の値: got=%d, want=3499211612", got)
	}
}
