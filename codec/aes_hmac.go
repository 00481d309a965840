// Package codec provides page codecs for the sqlite3 package's Options.Codec
// extension point. It is only exercised when linked against a codec-enabled
// SQLite build.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/sqlite3kit/sqlite3"
)

// AESHMAC returns a sqlite3.CodecFunc that encrypts every page with AES in
// counter mode and authenticates it with an HMAC tag, adapted from the
// Go-SQLite project's original page codec. key is "option1,option2:secret";
// recognized options are "192", "256" (key length, default 128) and "sha256"
// (HMAC hash, default SHA-1).
func AESHMAC() sqlite3.CodecFunc {
	return func(file, name string, pageSize, reserve int, key []byte) sqlite3.Codec {
		c, err := newAESHMAC(key)
		if err != nil {
			return nil
		}
		return c
	}
}

type aesHMAC struct {
	key  []byte
	p1k  []byte
	p1i  []byte
	buf  []byte
	kLen int
	tLen int

	hash func() hash.Hash
	mode func(block cipher.Block, iv []byte) cipher.Stream

	block cipher.Block
	hmac  hash.Hash
}

func parseKey(key []byte) (opts []string, secret []byte) {
	s := string(key)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if s[:i] != "" {
			opts = strings.Split(s[:i], ",")
		}
		return opts, []byte(s[i+1:])
	}
	return nil, key
}

func newAESHMAC(key []byte) (*aesHMAC, error) {
	opts, secret := parseKey(key)
	if len(secret) == 0 {
		return nil, fmt.Errorf("sqlite3/codec: empty key")
	}
	c := &aesHMAC{
		key:  key,
		p1k:  secret,
		p1i:  []byte("sqlite3kit-codec"),
		kLen: 16,
		tLen: 16,
		hash: sha1.New,
		mode: cipher.NewCTR,
	}
	for _, opt := range opts {
		switch opt {
		case "192":
			c.kLen = 24
		case "256":
			c.kLen = 32
		case "sha256":
			c.hash = sha256.New
		default:
			return nil, fmt.Errorf("sqlite3/codec: invalid option %q", opt)
		}
	}
	return c, nil
}

func (c *aesHMAC) Reserve() int { return c.kLen + aes.BlockSize + c.tLen }

func (c *aesHMAC) Resize(pageSize, reserve int) {
	c.buf = make([]byte, pageSize)
}

func (c *aesHMAC) Encode(p []byte, n uint32, op int) []byte {
	iv := c.pIV(c.buf)
	if !random(iv) {
		return nil
	}
	if c.block == nil && !c.init(p, n, true) {
		return nil
	}

	stream, mac := c.cipher(n, iv)
	if stream == nil {
		return nil
	}
	stream.XORKeyStream(c.buf, c.pText(p))
	if n == 1 {
		copy(c.buf[16:], p[16:24]) // bytes 16-23 are never encrypted
	}
	c.tag(c.buf, n, mac, false)
	return c.buf
}

func (c *aesHMAC) Decode(p []byte, n uint32, op int) bool {
	stream, mac := c.cipher(n, c.pIV(p))
	if stream == nil || !c.tag(p, n, mac, true) {
		return false
	}

	var hdr [8]byte
	if n == 1 {
		copy(hdr[:], p[16:24])
	}
	stream.XORKeyStream(p, c.pText(p))
	if n == 1 {
		copy(p[16:24], hdr[:])
	}

	if c.block == nil && !c.init(p, n, false) {
		return false
	}
	return true
}

func (c *aesHMAC) Key() []byte { return c.key }

func (c *aesHMAC) FastRekey() bool { return false }

func (c *aesHMAC) Free() {
	wipe(c.key)
	*c = aesHMAC{}
}

// cipher derives (for page 1) or reuses the stream cipher and HMAC for page
// n, both reset to their initial state.
func (c *aesHMAC) cipher(n uint32, iv []byte) (cipher.Stream, hash.Hash) {
	if n > 1 {
		if c.hmac == nil {
			return nil, nil
		}
		c.hmac.Reset()
		return c.mode(c.block, iv), c.hmac
	}

	dkLen := 2*c.kLen + aes.BlockSize
	dk := make([]byte, dkLen)
	r := hkdf.New(c.hash, c.p1k, iv, c.p1i)
	if _, err := r.Read(dk); err != nil {
		return nil, nil
	}
	defer wipe(dk)

	ck, hk, p1iv := dk[:c.kLen], dk[c.kLen:2*c.kLen], dk[2*c.kLen:]
	block, mac := c.rekey(ck, hk)
	if block == nil {
		return nil, nil
	}
	return c.mode(block, p1iv), mac
}

func (c *aesHMAC) tag(p []byte, n uint32, h hash.Hash, verify bool) bool {
	h.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	h.Write(c.pAuth(p))
	tag := c.pTag(c.buf)
	h.Sum(tag[:0])
	if !verify {
		return true
	}
	return hmac.Equal(tag, c.pTag(p))
}

// init derives the block cipher and HMAC from page 1's master key, generating
// a fresh one when newKey is set.
func (c *aesHMAC) init(p []byte, n uint32, newKey bool) bool {
	if n != 1 {
		return false
	}
	mk := c.pKey(p)
	if newKey && !random(mk) {
		return false
	}

	hdr := append(make([]byte, 0, 16), p[:16]...)
	dk := make([]byte, 2*c.kLen)
	r := hkdf.New(c.hash, mk, nil, hdr)
	if _, err := r.Read(dk); err != nil {
		return false
	}
	defer wipe(dk)

	c.block, c.hmac = c.rekey(dk[:c.kLen], dk[c.kLen:])
	return c.block != nil
}

func (c *aesHMAC) rekey(ck, hk []byte) (cipher.Block, hash.Hash) {
	block, err := aes.NewCipher(ck)
	if err != nil {
		return nil, nil
	}
	return block, hmac.New(c.hash, hk)
}

func (c *aesHMAC) pAuth(p []byte) []byte { return p[:len(p)-c.tLen] }
func (c *aesHMAC) pText(p []byte) []byte { return p[:len(p)-c.tLen-aes.BlockSize] }

func (c *aesHMAC) pKey(p []byte) []byte {
	off := len(p) - c.tLen - aes.BlockSize - c.kLen
	return p[off : off+c.kLen]
}

func (c *aesHMAC) pIV(p []byte) []byte {
	off := len(p) - c.tLen - aes.BlockSize
	return p[off : off+aes.BlockSize]
}

func (c *aesHMAC) pTag(p []byte) []byte { return p[len(p)-c.tLen:] }

func random(b []byte) bool {
	_, err := rand.Read(b)
	return err == nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
