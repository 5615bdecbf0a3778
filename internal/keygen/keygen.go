// Package keygen derives node keys.
package keygen

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// Input is the identifying tuple of a node.
type Input struct {
	ParentKey  string
	Key        string // explicit key, preferred as-is when set
	URL        string
	Title      string
	Area       string
	Controller string
	Action     string
	HTTPMethod string
	Clickable  bool
}

// Generator produces node keys. Implementations must be pure: the same
// Input always yields the same key.
type Generator interface {
	GenerateKey(in Input) string
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(in Input) string

func (fn GeneratorFunc) GenerateKey(in Input) string { return fn(in) }

// Default returns an explicit key unchanged and otherwise hashes the tuple.
type Default struct{}

// GenerateKey implements Generator.
func (Default) GenerateKey(in Input) string {
	if in.Key != "" {
		return in.Key
	}
	return Derive(in)
}

// Derive hashes every field of the tuple, explicit key included.
// Fields are length-prefixed so ("ab","c") and ("a","bc") differ.
func Derive(in Input) string {
	h := sha256.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for _, f := range []string{
		in.ParentKey, in.Key, in.URL, in.Title,
		in.Area, in.Controller, in.Action, in.HTTPMethod,
		strconv.FormatBool(in.Clickable),
	} {
		n := binary.PutUvarint(lenBuf[:], uint64(len(f)))
		h.Write(lenBuf[:n])
		h.Write([]byte(f))
	}
	return "n" + hex.EncodeToString(h.Sum(nil))[:16]
}
