package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peterbourgon/diskv/v3"
)

var (
	ErrInvalidToken    = errors.New("invalid upload token")
	ErrKeyMismatch     = errors.New("upload token does not match key")
	ErrContentMismatch = errors.New("content type does not match upload token")
	ErrInvalidKey      = errors.New("invalid object key")
)

// KeyPrefix is the only directory objects may live under.
const KeyPrefix = "reports/"

const cacheSizeMax = 1024 * 1024

type uploadClaims struct {
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

// LocalStore keeps uploaded objects on disk and signs its own upload URLs
// with HS256 tokens. It stands in for S3 when running without AWS.
type LocalStore struct {
	disk    *diskv.Diskv
	secret  []byte
	baseURL string
}

func NewLocalStore(root string, secret []byte, publicBaseURL string) *LocalStore {
	transform := func(key string) *diskv.PathKey {
		parts := strings.Split(key, "/")
		last := len(parts) - 1
		return &diskv.PathKey{
			Path:     parts[:last],
			FileName: parts[last],
		}
	}
	inverse := func(pathKey *diskv.PathKey) string {
		parts := append([]string{}, pathKey.Path...)
		return strings.Join(append(parts, pathKey.FileName), "/")
	}

	return &LocalStore{
		disk: diskv.New(diskv.Options{
			BasePath:          root,
			AdvancedTransform: transform,
			InverseTransform:  inverse,
			CacheSizeMax:      cacheSizeMax,
		}),
		secret:  secret,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *LocalStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := uploadClaims{
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign upload token: %w", err)
	}

	u, err := url.JoinPath(s.baseURL, "uploads", key)
	if err != nil {
		return "", fmt.Errorf("build upload url: %w", err)
	}
	return u + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token was issued for key and contentType and has not
// expired.
func (s *LocalStore) Verify(token, key, contentType string) error {
	var claims uploadClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject != key {
		return ErrKeyMismatch
	}
	if claims.ContentType != contentType {
		return ErrContentMismatch
	}
	return nil
}

// CleanKey normalises key and rejects anything that is not a file under
// KeyPrefix or that contains a ".." element.
func CleanKey(key string) (string, error) {
	for _, part := range strings.Split(strings.ReplaceAll(key, "\\", "/"), "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if !strings.HasPrefix(cleaned, KeyPrefix) || cleaned == KeyPrefix {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// Put writes the object body under key, replacing any previous object.
func (s *LocalStore) Put(key string, r io.Reader) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.disk.WriteStream(key, r, true); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Open returns a reader for a stored object.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.disk.ReadStream(key, false)
}

func (s *LocalStore) Has(key string) bool {
	key, err := CleanKey(key)
	if err != nil {
		return false
	}
	return s.disk.Has(key)
}
