package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/arklim/reviewapp-auth/internal/core/port"
)

const argon2Version = argon2.Version

var (
	errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")
	errInvalidConfig     = errors.New("argon2: invalid configuration")
)

var b64 = base64.RawStdEncoding

// Argon2Config defines tunable parameters for Argon2id password hashing.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config is the production profile: 64 MiB, 3 passes, 4 lanes.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (cfg Argon2Config) validate() error {
	switch {
	case cfg.Memory < 8*1024:
		return fmt.Errorf("%w: memory must be at least 8192 KiB", errInvalidConfig)
	case cfg.Iterations == 0:
		return fmt.Errorf("%w: iterations must be positive", errInvalidConfig)
	case cfg.Parallelism == 0:
		return fmt.Errorf("%w: parallelism must be positive", errInvalidConfig)
	case cfg.SaltLength < 8:
		return fmt.Errorf("%w: salt must be at least 8 bytes", errInvalidConfig)
	case cfg.KeyLength < 16:
		return fmt.Errorf("%w: key must be at least 16 bytes", errInvalidConfig)
	}
	return nil
}

// phcHash is a parsed $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type phcHash struct {
	params Argon2Config
	salt   []byte
	key    []byte
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parsePHCHash(encoded string) (phcHash, error) {
	// The leading $ yields an empty first field.
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return phcHash{}, errInvalidHashFormat
	}
	if fields[1] != "argon2id" {
		return phcHash{}, fmt.Errorf("argon2: unexpected variant %q", fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return phcHash{}, errInvalidHashFormat
	}
	if version != argon2Version {
		return phcHash{}, fmt.Errorf("argon2: unsupported version %d", version)
	}

	var h phcHash
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism)
	if err != nil || n != 3 {
		return phcHash{}, errInvalidHashFormat
	}
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return phcHash{}, fmt.Errorf("argon2: decode salt: %w", err)
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil {
		return phcHash{}, fmt.Errorf("argon2: decode key: %w", err)
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))

	if err := h.params.validate(); err != nil {
		return phcHash{}, err
	}
	return h, nil
}

func derive(password string, salt []byte, params Argon2Config) []byte {
	return argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
}

// Argon2Hasher stores user passwords as PHC formatted Argon2id strings.
type Argon2Hasher struct {
	cfg Argon2Config
}

// NewArgon2Hasher validates cfg and builds a hasher around it.
func NewArgon2Hasher(cfg Argon2Config) (*Argon2Hasher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2Hasher{cfg: cfg}, nil
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}
	return phcHash{params: h.cfg, salt: salt, key: derive(password, salt, h.cfg)}.String(), nil
}

// Verify checks password against encoded using the parameters stored in
// encoded, so hashes made under an older profile keep working.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}
	stored, err := parsePHCHash(encoded)
	if err != nil {
		return false, err
	}
	computed := derive(password, stored.salt, stored.params)
	return subtle.ConstantTimeCompare(computed, stored.key) == 1, nil
}

var _ port.PasswordHasher = (*Argon2Hasher)(nil)
