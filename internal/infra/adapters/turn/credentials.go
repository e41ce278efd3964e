package turn

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/qrave1/PairSpeak/internal/application/config"
)

var ErrNoSecret = errors.New("coturn secret is empty")

// CredentialIssuer выдает временные креды coturn (REST API, static-auth-secret)
type CredentialIssuer struct {
	cfg config.CoturnConfig
	now func() time.Time
}

func NewCredentialIssuer(cfg config.CoturnConfig) *CredentialIssuer {
	return &CredentialIssuer{cfg: cfg, now: time.Now}
}

// Issue binds the credential to roomName and displayName; coturn only checks the expiry prefix.
func (i *CredentialIssuer) Issue(roomName, displayName string) (webrtc.ICEServer, error) {
	if i.cfg.Secret == "" {
		return webrtc.ICEServer{}, ErrNoSecret
	}

	expiration := i.now().Add(i.cfg.CredentialTTL).Unix()

	username := fmt.Sprintf("%d", expiration)
	if roomName != "" || displayName != "" {
		username = fmt.Sprintf("%d:%s/%s", expiration, roomName, displayName)
	}

	// HMAC-SHA1 от username с использованием static-auth-secret
	mac := hmac.New(sha1.New, []byte(i.cfg.Secret))
	mac.Write([]byte(username))
	password := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return webrtc.ICEServer{
		URLs:           i.cfg.URLs(),
		Username:       username,
		Credential:     password,
		CredentialType: webrtc.ICECredentialTypePassword,
	}, nil
}
