package cartridge

import "bytes"

// LoadFromBytes loads a cartridge from an in-memory iNES image, for tests
// that build ROM bytes programmatically instead of reading a file.
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data))
}
