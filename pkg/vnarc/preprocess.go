package vnarc

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// スプライト合成に使う拡張子
const (
	SpriteExt  = ".grp"
	PaletteExt = ".c16"
	MaskExt    = ".msk"
)

// spriteGroup は同じステムを持つエントリの組です (無い役割は -1)
type spriteGroup struct {
	stem    string
	sprite  int
	palette int
	mask    int
}

// indices は組に含まれるエントリ番号を返します
func (g spriteGroup) indices() []int {
	idx := []int{g.sprite}
	if g.palette >= 0 {
		idx = append(idx, g.palette)
	}
	if g.mask >= 0 {
		idx = append(idx, g.mask)
	}
	return idx
}

// splitStem はエントリパスをステムと小文字の拡張子に分けます
func splitStem(p string) (stem, ext string) {
	p = strings.ReplaceAll(p, `\`, "/")
	ext = path.Ext(p)
	return strings.TrimSuffix(p, ext), strings.ToLower(ext)
}

// groupSprites はスプライトを持つステムごとにエントリをまとめ、ステム順に返します
func groupSprites(meta *Meta) []spriteGroup {
	groups := make(map[string]*spriteGroup)
	get := func(stem string) *spriteGroup {
		g, ok := groups[stem]
		if !ok {
			g = &spriteGroup{stem: stem, sprite: -1, palette: -1, mask: -1}
			groups[stem] = g
		}
		return g
	}

	for i, e := range meta.Entries {
		if meta.Consumed(i) {
			continue
		}
		stem, ext := splitStem(e.Path)
		switch ext {
		case SpriteExt:
			get(stem).sprite = i
		case PaletteExt:
			get(stem).palette = i
		case MaskExt:
			get(stem).mask = i
		}
	}

	result := make([]spriteGroup, 0, len(groups))
	for _, g := range groups {
		if g.sprite >= 0 {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].stem < result[j].stem
	})
	return result
}

// Preprocess はスプライト・パレット・マスクの組を1枚の画像に合成して保存します。
// 合成に成功した組のエントリは合成済みになり、個別には抽出されません。
// 失敗した組は警告を出して飛ばし、エントリはそのまま残します。
func (d *Pak1Decoder) Preprocess(c *Container, meta *Meta, composer Composer, saver Saver) (int, error) {
	if err := d.CheckConfig(); err != nil {
		return 0, err
	}

	composed := 0
	for _, g := range groupSprites(meta) {
		if err := d.composeGroup(c, meta, g, composer, saver); err != nil {
			if IsConfigError(err) {
				return composed, err
			}
			d.opts.logger.Warn("スプライトの合成に失敗しました。個別に抽出します",
				"sprite", meta.Entries[g.sprite].Path, "error", err)
			continue
		}
		for _, i := range g.indices() {
			meta.MarkConsumed(i)
		}
		composed++
		d.opts.logger.Debug("スプライトを合成しました", "sprite", meta.Entries[g.sprite].Path, "entries", len(g.indices()))
	}
	return composed, nil
}

func (d *Pak1Decoder) composeGroup(c *Container, meta *Meta, g spriteGroup, composer Composer, saver Saver) error {
	sprite, err := d.ReadEntry(c, meta, g.sprite)
	if err != nil {
		return err
	}
	var palette, mask []byte
	if g.palette >= 0 {
		if palette, err = d.ReadEntry(c, meta, g.palette); err != nil {
			return err
		}
	}
	if g.mask >= 0 {
		if mask, err = d.ReadEntry(c, meta, g.mask); err != nil {
			return err
		}
	}

	img, err := composer.Compose(sprite, palette, mask)
	if err != nil {
		return fmt.Errorf("画像の合成に失敗: %w", err)
	}
	if err := saver.SaveImage(meta.Entries[g.sprite].Path, img); err != nil {
		return fmt.Errorf("画像の保存に失敗: %w", err)
	}
	return nil
}
