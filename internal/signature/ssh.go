package signature

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// SSHSigningKey signs commits in the SSHSIG format understood by `git verify-commit` with
// gpg.format=ssh.
type SSHSigningKey struct {
	PrivateKey ssh.Signer
}

// sshsigEnvelope is the armored signature blob, see PROTOCOL.sshsig in OpenSSH.
type sshsigEnvelope struct {
	MagicHeader   [6]byte
	Version       uint32
	PublicKey     []byte
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Signature     []byte
}

// sshsigMessage is what actually gets signed: the digest of the commit buffer framed with
// the namespace and hash algorithm.
type sshsigMessage struct {
	MagicHeader   [6]byte
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Hash          []byte
}

var sshsigMagic = [6]byte{'S', 'S', 'H', 'S', 'I', 'G'}

const (
	sshsigVersion   = 1
	sshsigNamespace = "git"
	sshsigHash      = "sha512"
	sshsigPEMType   = "SSH SIGNATURE"
)

var errInvalidSSHSignature = errors.New("invalid SSH signature")

func parseSSHSigningKey(key []byte) (*SSHSigningKey, error) {
	privateKey, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse SSH private key: %w", err)
	}

	return &SSHSigningKey{PrivateKey: privateKey}, nil
}

func newSSHSigMessage(namespace, hashAlgorithm string, content []byte) []byte {
	digest := sha512.Sum512(content)

	return ssh.Marshal(sshsigMessage{
		MagicHeader:   sshsigMagic,
		Namespace:     namespace,
		HashAlgorithm: hashAlgorithm,
		Hash:          digest[:],
	})
}

// CreateSignature returns the armored SSHSIG signature of the commit buffer.
func (sk *SSHSigningKey) CreateSignature(contentToSign []byte) ([]byte, error) {
	signer, ok := sk.PrivateKey.(ssh.AlgorithmSigner)
	if !ok {
		return nil, fmt.Errorf("SSH key of type %s cannot choose its signature algorithm", sk.PrivateKey.PublicKey().Type())
	}

	// ssh-keygen upgrades RSA keys to SHA-512 signatures.
	algorithm := signer.PublicKey().Type()
	if algorithm == ssh.KeyAlgoRSA {
		algorithm = ssh.KeyAlgoRSASHA512
	}

	signature, err := signer.SignWithAlgorithm(rand.Reader, newSSHSigMessage(sshsigNamespace, sshsigHash, contentToSign), algorithm)
	if err != nil {
		return nil, fmt.Errorf("sign commit: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type: sshsigPEMType,
		Bytes: ssh.Marshal(sshsigEnvelope{
			MagicHeader:   sshsigMagic,
			Version:       sshsigVersion,
			PublicKey:     signer.PublicKey().Marshal(),
			Namespace:     sshsigNamespace,
			HashAlgorithm: sshsigHash,
			Signature:     ssh.Marshal(signature),
		}),
	}), nil
}

// VerifySSH checks that signatureText is an SSHSIG signature of signedText created with the
// private key belonging to publicKey.
func VerifySSH(publicKey ssh.PublicKey, signatureText, signedText []byte) error {
	block, rest := pem.Decode(signatureText)
	if block == nil || len(rest) > 0 || block.Type != sshsigPEMType {
		return errInvalidSSHSignature
	}

	var envelope sshsigEnvelope
	if err := ssh.Unmarshal(block.Bytes, &envelope); err != nil {
		return fmt.Errorf("%w: %v", errInvalidSSHSignature, err)
	}
	if envelope.MagicHeader != sshsigMagic {
		return fmt.Errorf("%w: bad magic header", errInvalidSSHSignature)
	}

	var signature ssh.Signature
	if err := ssh.Unmarshal(envelope.Signature, &signature); err != nil {
		return fmt.Errorf("%w: %v", errInvalidSSHSignature, err)
	}

	return publicKey.Verify(newSSHSigMessage(envelope.Namespace, envelope.HashAlgorithm, signedText), &signature)
}
