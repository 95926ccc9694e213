package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

/*
NOTE(@hadydotai): Symbols come from two places on chain.

SPL Token mints keep theirs on a Metaplex PDA ["metadata", program, mint]:

	key (1) | update_authority (32) | mint (32) | name (borsh) | symbol (borsh) | uri (borsh) | ...

Token-2022 mints carry TLV extensions after the 82 byte mint, either straight after an
AccountType byte or after padding up to the 165 byte account length:

	mint (82) | [zero padding (83)] | AccountType=1 | type u16 | length u16 | value | ...

Type 19 is TokenMetadata (update_authority, mint, name, symbol, uri, additional kv vec).
Type 18 is MetadataPointer (authority, metadata address), we follow it once and only once.
*/

var (
	MPLTokenMetaDataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	errTokenMetadataMissing   = errors.New("no Token-2022 TokenMetadata found")
)

const (
	baseMintLen                  = 82
	baseAccountLen               = 165
	mintExtensionPaddingBytes    = baseAccountLen - baseMintLen
	accountTypeMint              = 1
	extensionTypeUninitialized   = 0
	extensionTypeMetadataPointer = 18
	extensionTypeTokenMetadata   = 19
)

// accountReader is the slice of *rpc.Client the metadata lookup needs.
type accountReader interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

type Token struct {
	Name   string
	Symbol string
}

func trimMeta(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func readPubKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

// metaplexMetadata only decodes up to the symbol, the rest of the account is irrelevant here.
type metaplexMetadata struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
}

func (m *metaplexMetadata) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if m.Key, err = dec.ReadUint8(); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	if m.UpdateAuthority, err = readPubKey(dec); err != nil {
		return fmt.Errorf("update authority: %w", err)
	}
	if m.Mint, err = readPubKey(dec); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if m.Name, err = dec.ReadString(); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if m.Symbol, err = dec.ReadString(); err != nil {
		return fmt.Errorf("symbol: %w", err)
	}
	return nil
}

type tokenMetadataExtension struct {
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
	Additional      [][2]string
}

func (m *tokenMetadataExtension) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if m.UpdateAuthority, err = readPubKey(dec); err != nil {
		return fmt.Errorf("update authority: %w", err)
	}
	if m.Mint, err = readPubKey(dec); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if m.Name, err = dec.ReadString(); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if m.Symbol, err = dec.ReadString(); err != nil {
		return fmt.Errorf("symbol: %w", err)
	}
	if m.URI, err = dec.ReadString(); err != nil {
		return fmt.Errorf("uri: %w", err)
	}
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("additional metadata length: %w", err)
	}
	for i := uint32(0); i < n; i++ {
		var kv [2]string
		if kv[0], err = dec.ReadString(); err != nil {
			return fmt.Errorf("additional metadata key %d: %w", i, err)
		}
		if kv[1], err = dec.ReadString(); err != nil {
			return fmt.Errorf("additional metadata value %d: %w", i, err)
		}
		m.Additional = append(m.Additional, kv)
	}
	return nil
}

type metadataPointerExtension struct {
	Authority solana.PublicKey
	Address   solana.PublicKey
}

func (m *metadataPointerExtension) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if m.Authority, err = readPubKey(dec); err != nil {
		return err
	}
	m.Address, err = readPubKey(dec)
	return err
}

func decodeToken2022MetadataEntry(val []byte, expectedMint solana.PublicKey) (Token, error) {
	var ext tokenMetadataExtension
	if err := ext.UnmarshalWithDecoder(bin.NewBorshDecoder(val)); err != nil {
		return Token{}, fmt.Errorf("invalid token metadata: %w", err)
	}
	if !ext.Mint.Equals(expectedMint) {
		return Token{}, errors.New("token metadata mint mismatch")
	}
	return Token{Name: trimMeta(ext.Name), Symbol: trimMeta(ext.Symbol)}, nil
}

func decodeMetadataPointer(val []byte) (solana.PublicKey, bool) {
	var ext metadataPointerExtension
	if err := ext.UnmarshalWithDecoder(bin.NewBorshDecoder(val)); err != nil {
		return solana.PublicKey{}, false
	}
	if ext.Address.IsZero() {
		return solana.PublicKey{}, false
	}
	return ext.Address, true
}

func token2022TLVRegion(data []byte) ([]byte, error) {
	if len(data) <= baseMintLen {
		return nil, errors.New("mint does not belong to a Token2022 token")
	}
	rest := data[baseMintLen:]
	if len(rest) >= mintExtensionPaddingBytes+1 &&
		allZero(rest[:mintExtensionPaddingBytes]) &&
		rest[mintExtensionPaddingBytes] == accountTypeMint {
		return rest[mintExtensionPaddingBytes+1:], nil
	}
	if rest[0] != accountTypeMint {
		return nil, errors.New("token2022 mint missing account type marker")
	}
	return rest[1:], nil
}

// parseToken2022TLVEntries returns the embedded metadata, or the pointer to follow when the
// mint only carries a MetadataPointer.
func parseToken2022TLVEntries(tlv []byte, expectedMint solana.PublicKey) (Token, *solana.PublicKey, error) {
	dec := bin.NewBorshDecoder(tlv)
	var pointer *solana.PublicKey
	for dec.Remaining() > 0 {
		if dec.Remaining() < 4 {
			return Token{}, nil, fmt.Errorf("malformed token2022 TLV: truncated header (%d bytes remain)", dec.Remaining())
		}
		typ, err := dec.ReadUint16(binary.LittleEndian)
		if err != nil {
			return Token{}, nil, fmt.Errorf("malformed token2022 TLV type: %w", err)
		}
		if typ == extensionTypeUninitialized {
			break
		}
		length, err := dec.ReadUint16(binary.LittleEndian)
		if err != nil {
			return Token{}, nil, fmt.Errorf("malformed token2022 TLV length: %w", err)
		}
		if int(length) > dec.Remaining() {
			return Token{}, nil, fmt.Errorf("malformed token2022 TLV: length %d exceeds remaining %d", length, dec.Remaining())
		}
		value, err := dec.ReadNBytes(int(length))
		if err != nil {
			return Token{}, nil, fmt.Errorf("malformed token2022 TLV value: %w", err)
		}
		switch typ {
		case extensionTypeTokenMetadata:
			token, err := decodeToken2022MetadataEntry(value, expectedMint)
			return token, nil, err
		case extensionTypeMetadataPointer:
			if pk, ok := decodeMetadataPointer(value); ok {
				pointer = &pk
			}
		}
	}
	if pointer != nil {
		return Token{}, pointer, nil
	}
	return Token{}, nil, errTokenMetadataMissing
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func accountData(ctx context.Context, client accountReader, account solana.PublicKey) (solana.PublicKey, []byte, error) {
	res, err := client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("rpc call getAccountInfo failed for %s: %w", shortAddr(account.String()), err)
	}
	if res == nil || res.Value == nil || res.Value.Data == nil {
		return solana.PublicKey{}, nil, fmt.Errorf("account data empty for %s", shortAddr(account.String()))
	}
	return res.Value.Owner, res.Value.Data.GetBinary(), nil
}

func parseToken2022Metadata(ctx context.Context, client accountReader, mint solana.PublicKey, data []byte) (Token, error) {
	tlv, err := token2022TLVRegion(data)
	if err != nil {
		return Token{}, err
	}
	token, pointer, err := parseToken2022TLVEntries(tlv, mint)
	if err == nil && pointer == nil {
		return token, nil
	}
	if pointer == nil {
		return Token{}, err
	}
	_, buf, err := accountData(ctx, client, *pointer)
	if err != nil {
		return Token{}, err
	}
	// The pointed-to account is either another TLV-encoded mint or a bare TokenMetadata
	// slab. A second pointer is not followed.
	if token, next, err := parseToken2022TLVEntries(buf, mint); err == nil && next == nil {
		return token, nil
	}
	token, err = decodeToken2022MetadataEntry(buf, mint)
	if err != nil {
		return Token{}, fmt.Errorf("failed decoding metadata via pointer %s: %w", shortAddr(pointer.String()), err)
	}
	return token, nil
}

func metaplexPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			MPLTokenMetaDataProgramID.Bytes(),
			mint.Bytes(),
		},
		MPLTokenMetaDataProgramID,
	)
	return pda, err
}

func parseMetaplexMetadata(ctx context.Context, client accountReader, mint solana.PublicKey) (Token, error) {
	pda, err := metaplexPDA(mint)
	if err != nil {
		return Token{}, fmt.Errorf("error deriving PDA to get token metadata %s: %w", shortAddr(mint.String()), err)
	}
	owner, data, err := accountData(ctx, client, pda)
	if err != nil {
		return Token{}, err
	}
	if !owner.Equals(MPLTokenMetaDataProgramID) {
		return Token{}, fmt.Errorf("account %s not owned by mpl-token-metadata (owner=%s)", shortAddr(pda.String()), shortAddr(owner.String()))
	}
	var meta metaplexMetadata
	if err := meta.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return Token{}, fmt.Errorf("decoding metaplex metadata for %s: %w", shortAddr(mint.String()), err)
	}
	return Token{Name: trimMeta(meta.Name), Symbol: trimMeta(meta.Symbol)}, nil
}

func tokenMetadata(ctx context.Context, client accountReader, mint solana.PublicKey) (Token, error) {
	owner, data, err := accountData(ctx, client, mint)
	if err != nil {
		return Token{}, err
	}
	switch {
	case owner.Equals(solana.Token2022ProgramID):
		return parseToken2022Metadata(ctx, client, mint, data)
	case owner.Equals(solana.TokenProgramID):
		return parseMetaplexMetadata(ctx, client, mint)
	}
	return Token{}, fmt.Errorf("couldn't get metadata for token %s", shortAddr(mint.String()))
}
