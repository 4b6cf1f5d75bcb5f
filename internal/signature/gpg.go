package signature

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// GpgSigningKey is a struct that implements SigningKey interface for GPG keys
type GpgSigningKey struct {
	Entity *openpgp.Entity
}

func parseGpgSigningKey(key []byte) (*GpgSigningKey, error) {
	var reader *packet.Reader
	if block, err := armor.Decode(bytes.NewReader(key)); err == nil {
		reader = packet.NewReader(block.Body)
	} else {
		reader = packet.NewReader(bytes.NewReader(key))
	}

	entity, err := openpgp.ReadEntity(reader)
	if err != nil {
		return nil, fmt.Errorf("read entity: %w", err)
	}

	if entity.PrivateKey == nil {
		return nil, fmt.Errorf("read entity: no private key")
	}

	return &GpgSigningKey{Entity: entity}, nil
}

// CreateSignature creates a gpg signature
func (sk *GpgSigningKey) CreateSignature(contentToSign []byte) ([]byte, error) {
	var sigBuf strings.Builder
	if err := openpgp.ArmoredDetachSignText(
		&sigBuf,
		sk.Entity,
		bytes.NewReader(contentToSign),
		&packet.Config{},
	); err != nil {
		return nil, fmt.Errorf("sign commit: %w", err)
	}

	return []byte(sigBuf.String()), nil
}

// VerifyGPG verifies that the armored signature has been created over signedText by one of the
// keys in the key ring.
func VerifyGPG(keyring openpgp.EntityList, signatureText, signedText []byte) error {
	if _, err := openpgp.CheckArmoredDetachedSignature(
		keyring,
		bytes.NewReader(signedText),
		bytes.NewReader(signatureText),
		nil,
	); err != nil {
		return fmt.Errorf("check signature: %w", err)
	}

	return nil
}
