package crypto

const (
	mtStateSize = 624
	mtShift     = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
	mtInitMul   = 1812433253
)

// RNGMT はメルセンヌ・ツイスタ (MT19937) 疑似乱数生成器です。
// 初期化は 1812433253 を用いる改良版 (init_genrand) です。
type RNGMT struct {
	state [mtStateSize]uint32
	index int
}

// NewRNGMT は指定されたシードで RNGMT を初期化して返します。
func NewRNGMT(seed uint32) *RNGMT {
	r := &RNGMT{}
	r.Seed(seed)
	return r
}

// Seed は生成器をシードで再初期化します。
func (r *RNGMT) Seed(seed uint32) {
	r.state[0] = seed
	for i := 1; i < mtStateSize; i++ {
		prev := r.state[i-1]
		r.state[i] = mtInitMul*(prev^(prev>>30)) + uint32(i)
	}
	// 最初の NextInt32 で状態を再生成させる
	r.index = mtStateSize
}

// twist は状態ベクトル全体を再生成します。
func (r *RNGMT) twist() {
	for i := 0; i < mtStateSize; i++ {
		y := (r.state[i] & mtUpperMask) | (r.state[(i+1)%mtStateSize] & mtLowerMask)
		next := r.state[(i+mtShift)%mtStateSize] ^ (y >> 1)
		if y&1 != 0 {
			next ^= mtMatrixA
		}
		r.state[i] = next
	}
	r.index = 0
}

// NextInt32 は次の32ビット符号なし乱数を生成して返します。
func (r *RNGMT) NextInt32() uint32 {
	if r.index >= mtStateSize {
		r.twist()
	}

	y := r.state[r.index]
	r.index++

	return temper(y)
}

// temper は MT19937 の調律 (tempering) を行います。
func temper(y uint32) uint32 {
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}
