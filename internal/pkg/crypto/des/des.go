// pcmdec/internal/pkg/crypto/des/des.go
package des

import (
    "bytes"
    "crypto/des"
    "fmt"

    "pcmdec/internal/core/domain"
)

const (
    KeySize   = 8 // DES consumes the first 8 key bytes
    BlockSize = des.BlockSize
)

// Decryptor implements DES/ECB/PKCS5Padding, the platform's default "DES" transformation.
type Decryptor struct{}

func NewDecryptor() *Decryptor {
    return &Decryptor{}
}

func (d *Decryptor) DecryptSegment(data []byte, key []byte) ([]byte, error) {
    if len(data) == 0 {
        return []byte{}, nil
    }
    if len(key) < KeySize {
        return nil, fmt.Errorf("%w: DES key needs at least %d bytes, got %d", domain.ErrInvalidKey, KeySize, len(key))
    }
    if len(data)%BlockSize != 0 {
        return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", domain.ErrCorruptData, len(data), BlockSize)
    }

    block, err := des.NewCipher(key[:KeySize])
    if err != nil {
        return nil, fmt.Errorf("%w: failed to create cipher: %v", domain.ErrCorruptData, err)
    }

    plain := make([]byte, len(data))
    for off := 0; off < len(data); off += BlockSize {
        block.Decrypt(plain[off:off+BlockSize], data[off:off+BlockSize])
    }

    unpadded, err := unpad(plain)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", domain.ErrCorruptData, err)
    }
    return unpadded, nil
}

// EncryptSegment is the inverse of DecryptSegment.
func (d *Decryptor) EncryptSegment(plain []byte, key []byte) ([]byte, error) {
    if len(key) < KeySize {
        return nil, fmt.Errorf("%w: DES key needs at least %d bytes, got %d", domain.ErrInvalidKey, KeySize, len(key))
    }

    block, err := des.NewCipher(key[:KeySize])
    if err != nil {
        return nil, fmt.Errorf("failed to create cipher: %w", err)
    }

    padded := pad(plain)
    out := make([]byte, len(padded))
    for off := 0; off < len(padded); off += BlockSize {
        block.Encrypt(out[off:off+BlockSize], padded[off:off+BlockSize])
    }
    return out, nil
}

func pad(data []byte) []byte {
    n := BlockSize - len(data)%BlockSize
    return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
    n := int(data[len(data)-1])
    if n == 0 || n > BlockSize {
        return nil, fmt.Errorf("invalid padding length: %d", n)
    }
    for i := len(data) - n; i < len(data); i++ {
        if data[i] != byte(n) {
            return nil, fmt.Errorf("invalid padding at position %d", i)
        }
    }
    return data[:len(data)-n], nil
}
