package services

import (
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
)

// sealer encrypts and decrypts the content fields of one request.
type sealer struct {
	key []byte
}

func (s sealer) seal(plain string) (string, error) {
	ct, err := cryptox.EncryptString(plain, s.key)
	if err != nil {
		return "", fmt.Errorf("%w: encrypt: %v", common.ErrorInternal, err)
	}
	return ct, nil
}

func (s sealer) open(sealed string) (string, error) {
	pt, err := cryptox.DecryptString(sealed, s.key)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt: %v", common.ErrorInternal, err)
	}
	return pt, nil
}

func (s sealer) sealBytes(plain []byte) ([]byte, error) {
	ct, nonce, err := cryptox.Encrypt(plain, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt: %v", common.ErrorInternal, err)
	}
	return append(nonce, ct...), nil
}

func (s sealer) openBytes(sealed []byte) ([]byte, error) {
	const nonceSize = 12
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: decrypt: short blob", common.ErrorInternal)
	}
	pt, err := cryptox.Decrypt(sealed[nonceSize:], sealed[:nonceSize], s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt: %v", common.ErrorInternal, err)
	}
	return pt, nil
}

func (s sealer) wipe() {
	common.WipeByteArray(s.key)
}

// sealerFor returns the session sealer for userID or
// common.ErrSessionNotInitialized.
func sealerFor(sessions *SessionService, userID int64) (sealer, error) {
	key, err := sessions.Key(userID)
	if err != nil {
		return sealer{}, err
	}
	return sealer{key: key}, nil
}
