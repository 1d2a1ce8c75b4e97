// Package crypto はビジュアルノベル系アーカイブで使われる暗号化・圧縮アルゴリズムを提供します。
//
// 主な機能:
//   - RNGMT: メルセンヌ・ツイスタ疑似乱数生成器
//   - MTXORDecrypt: MT キーストリームと加算バイト列を組み合わせたテーブル復号
//   - XOR: 単純なXORマスク
//   - DecompressLeafLZSS: 辞書サイズ可変の LZSS 変種の解凍
package crypto

// MTXORDecrypt は buf をその場で復号します。
//
// 各バイトを MT の出力語の下位8ビットで XOR し、さらに走行バイト a で XOR します。
// その後 a += b, b += delta を行います (どちらも8ビットで折り返し)。
// 長さ0のバッファも受け付けます。
func MTXORDecrypt(buf []byte, seed uint32, a, b, delta byte) {
	if len(buf) == 0 {
		return
	}
	mt := NewRNGMT(seed)
	for i := range buf {
		buf[i] ^= byte(mt.NextInt32())
		buf[i] ^= a
		a += b
		b += delta
	}
}

// XOR はデータの各バイトを指定されたキーで XOR し、同じスライスを返します。
func XOR(data []byte, key byte) []byte {
	for i := range data {
		data[i] ^= key
	}
	return data
}
