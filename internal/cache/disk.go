package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Vector files are: magic, expiry (unix nanos, 0 = never), dimension, then
// little-endian float32 values
var vectorMagic = [4]byte{'F', 'L', 'V', '1'}

const headerSize = 4 + 8 + 4

var errCorrupt = errors.New("corrupt vector file")

// DiskCache persists vectors as one binary file per key, sharded by the
// first two hex characters of the key hash
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

// Get reads a vector. Expired or unreadable files are removed.
func (c *DiskCache) Get(key string) ([]float32, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	vec, expires, err := decodeVector(data)
	if err != nil || (!expires.IsZero() && c.now().After(expires)) {
		_ = os.Remove(path)
		return nil, false
	}
	return vec, true
}

// Set writes the vector to a temp file and renames it into place
func (c *DiskCache) Set(key string, vec []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(encodeVector(vec, expires)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write vector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close vector file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename vector file: %w", err)
	}
	return nil
}

// Delete removes a vector. Missing keys are not an error.
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes the whole cache directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	shard := "00"
	if i := strings.LastIndex(key, ":"); i >= 0 && len(key)-i > 2 {
		shard = key[i+1 : i+3]
	}
	return filepath.Join(c.dir, shard, name+".vec")
}

func encodeVector(vec []float32, expires time.Time) []byte {
	buf := make([]byte, headerSize+4*len(vec))
	copy(buf, vectorMagic[:])
	var nanos int64
	if !expires.IsZero() {
		nanos = expires.UnixNano()
	}
	binary.LittleEndian.PutUint64(buf[4:], uint64(nanos))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, time.Time, error) {
	if len(data) < headerSize || [4]byte(data[:4]) != vectorMagic {
		return nil, time.Time{}, errCorrupt
	}
	var expires time.Time
	if nanos := int64(binary.LittleEndian.Uint64(data[4:])); nanos != 0 {
		expires = time.Unix(0, nanos)
	}
	dim := int(binary.LittleEndian.Uint32(data[12:]))
	if len(data) != headerSize+4*dim {
		return nil, time.Time{}, errCorrupt
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}
	return vec, expires, nil
}
