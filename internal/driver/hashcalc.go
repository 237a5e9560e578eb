package driver

import (
	"crypto/sha256"
	"fmt"

	"wsc/internal/lower"
	"wsc/internal/version"
)

// Digest is a fixed 256-bit hash, compatible with source.File.Hash.
type Digest [32]byte

// combineDigest: H(content || part1 || part2 ...).
func combineDigest(content Digest, parts ...[]byte) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// cacheKey covers everything that changes the emitted program: the fixture
// content, the target options and the compiler version.
func cacheKey(content Digest, opts lower.Options) Digest {
	target := fmt.Appendf(nil, "slots=%d/%d break=%t continue=%t schema=%d",
		opts.Slots.GlobalSlots, opts.Slots.PlayerSlots, opts.NativeBreak, opts.NativeContinue, diskCacheSchemaVersion)
	return combineDigest(content, target, []byte(version.Plain()))
}
