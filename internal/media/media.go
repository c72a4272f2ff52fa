// Package media is the boundary to the external media store. File bytes
// never transit this service: clients upload straight to the provider using
// credentials signed here, then commit the resulting descriptor.
package media

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"droply-server/internal/config"

	"github.com/google/uuid"
)

var ErrInvalidDescriptor = errors.New("upload descriptor lacks a retrievable url")

type Client struct {
	urlEndpoint string
	publicKey   string
	privateKey  string
	tokenTTL    time.Duration

	// overridable in tests
	now func() time.Time
}

func NewClient(cfg config.MediaConfig) *Client {
	return &Client{
		urlEndpoint: strings.TrimRight(cfg.URLEndpoint, "/"),
		publicKey:   cfg.PublicKey,
		privateKey:  cfg.PrivateKey,
		tokenTTL:    time.Duration(cfg.TokenTTLSeconds) * time.Second,
		now:         time.Now,
	}
}

// UploadCredentials are the signed parameters a client presents to the media
// store when uploading bytes directly.
type UploadCredentials struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"publicKey"`
	URLEndpoint string `json:"urlEndpoint"`
}

// IssueUploadCredentials signs a one-time upload token. The signature scheme
// (hex HMAC-SHA1 over token+expire with the private key) is the provider's
// documented contract.
func (c *Client) IssueUploadCredentials() UploadCredentials {
	token := uuid.NewString()
	expire := c.now().Add(c.tokenTTL).Unix()

	return UploadCredentials{
		Token:       token,
		Expire:      expire,
		Signature:   c.sign(token, expire),
		PublicKey:   c.publicKey,
		URLEndpoint: c.urlEndpoint,
	}
}

func (c *Client) sign(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(c.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Descriptor is the metadata the media store hands back after a direct
// upload. Size and type are trusted as reported by the provider.
type Descriptor struct {
	URL       string  `json:"url"`
	Name      string  `json:"name"`
	SizeBytes int64   `json:"size"`
	FileType  string  `json:"fileType"`
	FilePath  string  `json:"filePath,omitempty"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// ValidateDescriptor rejects descriptors whose URL is missing, unparseable
// or outside the configured endpoint.
func (c *Client) ValidateDescriptor(d Descriptor) error {
	if strings.TrimSpace(d.URL) == "" {
		return ErrInvalidDescriptor
	}

	u, err := url.Parse(d.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidDescriptor
	}

	if c.urlEndpoint != "" && !strings.HasPrefix(d.URL, c.urlEndpoint) {
		return ErrInvalidDescriptor
	}

	if d.SizeBytes < 0 {
		return ErrInvalidDescriptor
	}

	return nil
}
