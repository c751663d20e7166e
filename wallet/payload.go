package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TopiaNetwork/topia-vault/codec"
	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	"github.com/TopiaNetwork/topia-vault/wallet/directory"
)

var payloadMarshaler = codec.CreateMarshaler(codec.CodecType_JSON)

// Payload is the secret tuple a backup encrypts.
type Payload struct {
	Mnemonic       string                    `json:"mnemonic"`
	KeyringOptions *tpcrtypes.KeyringOptions `json:"keyringOptions"`
	Derivation     *tpcrtypes.DerivationPath `json:"derivation,omitempty"`
}

// ParsePayload decodes a decrypted backup. Undecodable JSON or a missing mnemonic,
// keyringOptions or cryptoAlgorithm is ErrSchemaValidation; an algorithm name that
// is present but unknown stays ErrUnsupportedAlgorithm.
func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := payloadMarshaler.Unmarshal(data, &p); err != nil {
		if errors.Is(err, tpcmm.ErrUnsupportedAlgorithm) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", tpcmm.ErrSchemaValidation, err)
	}

	if strings.TrimSpace(p.Mnemonic) == "" {
		return nil, fmt.Errorf("%w: missing mnemonic", tpcmm.ErrSchemaValidation)
	}
	if p.KeyringOptions == nil {
		return nil, fmt.Errorf("%w: missing keyringOptions", tpcmm.ErrSchemaValidation)
	}
	if p.KeyringOptions.CryptType == tpcrtypes.CryptType_Unknown {
		return nil, fmt.Errorf("%w: missing keyringOptions.cryptoAlgorithm", tpcmm.ErrSchemaValidation)
	}

	return &p, nil
}

func (p *Payload) Marshal() ([]byte, error) {
	return payloadMarshaler.Marshal(p)
}

func (p *Payload) mnemonicData() *directory.MnemonicData {
	md := &directory.MnemonicData{
		Mnemonic:       p.Mnemonic,
		KeyringOptions: *p.KeyringOptions,
	}
	if p.Derivation != nil && !p.Derivation.IsEmpty() {
		d := *p.Derivation
		md.Derivation = &d
	}
	return md
}

func payloadFromMnemonicData(md *directory.MnemonicData) *Payload {
	opts := md.KeyringOptions
	p := &Payload{
		Mnemonic:       md.Mnemonic,
		KeyringOptions: &opts,
	}
	if md.Derivation != nil {
		d := *md.Derivation
		p.Derivation = &d
	}
	return p
}
