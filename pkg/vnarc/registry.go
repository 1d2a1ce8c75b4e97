package vnarc

import (
	"errors"
	"fmt"
	"strings"
)

// Registry は既知のデコーダを登録順に保持します
type Registry struct {
	decoders []Decoder
}

// NewRegistry は指定したデコーダを登録したRegistryを作成します
func NewRegistry(decoders ...Decoder) *Registry {
	r := &Registry{}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// DefaultRegistry はpak2、pak1の順にデコーダを登録したRegistryを返します
func DefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(NewPak2Decoder(opts...), NewPak1Decoder(opts...))
}

// Register はデコーダを末尾に追加します
func (r *Registry) Register(d Decoder) {
	if d != nil {
		r.decoders = append(r.decoders, d)
	}
}

// Decoders は登録されているデコーダを返します
func (r *Registry) Decoders() []Decoder {
	return append([]Decoder(nil), r.decoders...)
}

// Names は登録されている形式名を返します
func (r *Registry) Names() []string {
	names := make([]string, len(r.decoders))
	for i, d := range r.decoders {
		names[i] = d.Name()
	}
	return names
}

// Lookup は形式名からデコーダを探します
func (r *Registry) Lookup(name string) (Decoder, error) {
	for _, d := range r.decoders {
		if strings.EqualFold(d.Name(), name) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (対応形式: %s)", ErrUnknownFormat, name, strings.Join(r.Names(), ", "))
}

// ProbeAll は全デコーダのプローブ結果を登録順に返します
func (r *Registry) ProbeAll(c *Container) []Recognition {
	results := make([]Recognition, 0, len(r.decoders))
	for _, d := range r.decoders {
		results = append(results, d.Probe(c))
	}
	return results
}

// Recognize は登録順にプローブし、最初に認識したデコーダを返します
func (r *Registry) Recognize(c *Container) (Decoder, error) {
	var reasons []error
	for _, d := range r.decoders {
		rec := d.Probe(c)
		if rec.Recognized() {
			return d, nil
		}
		reasons = append(reasons, rec.Reason)
	}
	if len(reasons) == 0 {
		return nil, ErrUnrecognizedFormat
	}
	return nil, fmt.Errorf("%w: %w", ErrUnrecognizedFormat, errors.Join(reasons...))
}
