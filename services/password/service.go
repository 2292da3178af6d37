package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

var (
	ErrHashingFailed = errors.New("failed to hash password")
	ErrMalformedHash = errors.New("malformed password hash")
)

const algorithmID = "argon2id"

// Service hashes and verifies account passwords with Argon2id. Hashes are
// stored in PHC string format, salt embedded, so parameters can be tightened
// later without invalidating existing credentials.
type Service struct {
	config *config.PasswordConfig
	logger *logging.Service
}

func NewService(cfg *config.PasswordConfig, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) Hash(password string) (string, error) {
	salt := make([]byte, s.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to generate password salt", zap.Error(err))
		}
		return "", ErrHashingFailed
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		s.config.Time,
		s.config.Memory,
		s.config.Parallelism,
		s.config.KeyLength,
	)

	encoded := fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		s.config.Memory,
		s.config.Time,
		s.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify fails closed: any malformed stored hash or mismatch yields false.
// The error return is reserved for operational failures, never for a
// legitimate mismatch.
func (s *Service) Verify(encodedHash, password string) bool {
	parsed, err := parseHash(encodedHash)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("password verification against malformed hash", zap.Error(err))
		}
		return false
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1
}

type parsedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func parseHash(encodedHash string) (*parsedHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}

	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	parsed := &parsedHash{}
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, ErrMalformedHash
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return nil, ErrMalformedHash
			}
			parsed.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return nil, ErrMalformedHash
			}
			parsed.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil {
				return nil, ErrMalformedHash
			}
			parsed.parallelism = uint8(v)
		default:
			return nil, ErrMalformedHash
		}
	}

	if parsed.memory == 0 || parsed.time == 0 || parsed.parallelism == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	parsed.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, ErrMalformedHash
	}

	parsed.hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(parsed.hash) == 0 {
		return nil, ErrMalformedHash
	}

	return parsed, nil
}
