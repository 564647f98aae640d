package blob

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ShortTTL is used for view, download and print links.
	ShortTTL = 3600 * time.Second
	// PreviewTTL is used for inline previews.
	PreviewTTL = 86400 * time.Second
)

// ErrInvalidToken is returned for forged, expired or mismatched link tokens.
var ErrInvalidToken = errors.New("invalid or expired blob token")

type objectClaims struct {
	Bucket string `json:"bkt"`
	Object string `json:"obj"`
	jwt.RegisteredClaims
}

// Signer issues and checks time-limited object links.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign returns a URL path granting read access to bucket/object until ttl elapses.
func (s *Signer) Sign(bucket string, object string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, objectClaims{
		Bucket: bucket,
		Object: object,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign blob token: %w", err)
	}

	return "/blobs/" + url.PathEscape(bucket) + "/" + escapeObject(object) + "?token=" + url.QueryEscape(signed), nil
}

// Verify checks that token grants access to bucket/object right now.
func (s *Signer) Verify(token string, bucket string, object string) error {
	claims := &objectClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}

	if claims.Bucket != bucket || claims.Object != object {
		return fmt.Errorf("%w: token does not cover %s/%s", ErrInvalidToken, bucket, object)
	}
	return nil
}

func escapeObject(object string) string {
	u := url.URL{Path: object}
	return u.EscapedPath()
}
