package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a ramp.v1 message with a binary protobuf encoding
type Message interface {
	MarshalProto() ([]byte, error)
	UnmarshalProto(b []byte) error
}

// field is a single decoded wire field. Only the value matching typ is set.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f field) str() (string, error) {
	if f.typ != protowire.BytesType {
		return "", fmt.Errorf("field %d: expected bytes, got wire type %d", f.num, f.typ)
	}
	return string(f.bytes), nil
}

func (f field) enum() (int32, error) {
	if f.typ != protowire.VarintType {
		return 0, fmt.Errorf("field %d: expected varint, got wire type %d", f.num, f.typ)
	}
	return int32(f.varint), nil
}

func (f field) message(m Message) error {
	if f.typ != protowire.BytesType {
		return fmt.Errorf("field %d: expected message, got wire type %d", f.num, f.typ)
	}
	if err := m.UnmarshalProto(f.bytes); err != nil {
		return fmt.Errorf("field %d: %w", f.num, err)
	}
	return nil
}

// parseFields walks the wire encoding of a message. Fields of unknown types
// are consumed and handed to visit with no value; visit ignores numbers it
// does not know.
func parseFields(b []byte, visit func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	return appendOneofString(b, num, v)
}

// appendOneofString writes v even when empty; oneof members have explicit presence
func appendOneofString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendEnum(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendMessage(b []byte, num protowire.Number, m Message) ([]byte, error) {
	encoded, err := m.MarshalProto()
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, encoded), nil
}

func appendBankAccount(b []byte, ibanNum, scanNum protowire.Number, account *BankAccount) ([]byte, error) {
	if account == nil {
		return b, nil
	}
	switch account.Case {
	case BankAccountCase_Iban:
		iban := account.Iban
		if iban == nil {
			iban = &IbanCoordinates{}
		}
		return appendMessage(b, ibanNum, iban)
	case BankAccountCase_Scan:
		scan := account.Scan
		if scan == nil {
			scan = &ScanCoordinates{}
		}
		return appendMessage(b, scanNum, scan)
	default:
		return nil, fmt.Errorf("unsupported bank account case: %q", account.Case)
	}
}

func parseIban(f field) (*BankAccount, error) {
	iban := &IbanCoordinates{}
	if err := f.message(iban); err != nil {
		return nil, err
	}
	return &BankAccount{Case: BankAccountCase_Iban, Iban: iban}, nil
}

func parseScan(f field) (*BankAccount, error) {
	scan := &ScanCoordinates{}
	if err := f.message(scan); err != nil {
		return nil, err
	}
	return &BankAccount{Case: BankAccountCase_Scan, Scan: scan}, nil
}

func (m *IbanCoordinates) MarshalProto() ([]byte, error) {
	return appendString(nil, 1, m.Iban), nil
}

func (m *IbanCoordinates) UnmarshalProto(b []byte) error {
	*m = IbanCoordinates{}
	return parseFields(b, func(f field) (err error) {
		if f.num == 1 {
			m.Iban, err = f.str()
		}
		return err
	})
}

func (m *ScanCoordinates) MarshalProto() ([]byte, error) {
	b := appendString(nil, 1, m.SortCode)
	return appendString(b, 2, m.AccountNumber), nil
}

func (m *ScanCoordinates) UnmarshalProto(b []byte) error {
	*m = ScanCoordinates{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.SortCode, err = f.str()
		case 2:
			m.AccountNumber, err = f.str()
		}
		return err
	})
}

func (m *GetAccountInfoRequest) MarshalProto() ([]byte, error) { return nil, nil }

func (m *GetAccountInfoRequest) UnmarshalProto(b []byte) error {
	return parseFields(b, func(field) error { return nil })
}

func (m *Authentication) MarshalProto() ([]byte, error) {
	return appendString(nil, 1, m.AuthenticationURL), nil
}

func (m *Authentication) UnmarshalProto(b []byte) error {
	*m = Authentication{}
	return parseFields(b, func(f field) (err error) {
		if f.num == 1 {
			m.AuthenticationURL, err = f.str()
		}
		return err
	})
}

func (m *GetAccountInfoResponse) MarshalProto() ([]byte, error) {
	switch m.ResultCase() {
	case GetAccountInfoResultCase_Account:
		return appendMessage(nil, 2, m.Account)
	case GetAccountInfoResultCase_Authentication:
		return appendMessage(nil, 1, m.Authentication)
	}
	return nil, nil
}

func (m *GetAccountInfoResponse) UnmarshalProto(b []byte) error {
	*m = GetAccountInfoResponse{}
	return parseFields(b, func(f field) error {
		switch f.num {
		case 1:
			auth := &Authentication{}
			if err := f.message(auth); err != nil {
				return err
			}
			m.Authentication, m.Account = auth, nil
		case 2:
			account := &Account{}
			if err := f.message(account); err != nil {
				return err
			}
			m.Account, m.Authentication = account, nil
		}
		return nil
	})
}

func (m *Account) MarshalProto() ([]byte, error) {
	b, err := appendBankAccount(nil, 1, 2, m.OnrampBankAccount)
	if err != nil {
		return nil, fmt.Errorf("onramp bank account: %w", err)
	}
	if b, err = appendBankAccount(b, 3, 4, m.OfframpBankAccount); err != nil {
		return nil, fmt.Errorf("offramp bank account: %w", err)
	}
	for _, w := range m.Wallets {
		if b, err = appendMessage(b, 5, w); err != nil {
			return nil, err
		}
	}
	for _, a := range m.CryptoAssets {
		if b, err = appendMessage(b, 6, a); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *Account) UnmarshalProto(b []byte) error {
	*m = Account{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.OnrampBankAccount, err = parseIban(f)
		case 2:
			m.OnrampBankAccount, err = parseScan(f)
		case 3:
			m.OfframpBankAccount, err = parseIban(f)
		case 4:
			m.OfframpBankAccount, err = parseScan(f)
		case 5:
			w := &Wallet{}
			if err = f.message(w); err == nil {
				m.Wallets = append(m.Wallets, w)
			}
		case 6:
			a := &CryptoAsset{}
			if err = f.message(a); err == nil {
				m.CryptoAssets = append(m.CryptoAssets, a)
			}
		}
		return err
	})
}

func (m *CryptoAsset) MarshalProto() ([]byte, error) {
	b := appendString(nil, 1, m.AssetID)
	b = appendString(b, 2, m.ShortName)
	b = appendString(b, 3, m.Name)
	b = appendEnum(b, 4, int32(m.Protocol))
	return appendEnum(b, 5, int32(m.Network)), nil
}

func (m *CryptoAsset) UnmarshalProto(b []byte) error {
	*m = CryptoAsset{}
	return parseFields(b, func(f field) (err error) {
		var v int32
		switch f.num {
		case 1:
			m.AssetID, err = f.str()
		case 2:
			m.ShortName, err = f.str()
		case 3:
			m.Name, err = f.str()
		case 4:
			v, err = f.enum()
			m.Protocol = Protocol(v)
		case 5:
			v, err = f.enum()
			m.Network = Network(v)
		}
		return err
	})
}

func (m *OffRamp) MarshalProto() ([]byte, error) {
	return appendString(nil, 1, m.Address), nil
}

func (m *OffRamp) UnmarshalProto(b []byte) error {
	*m = OffRamp{}
	return parseFields(b, func(f field) (err error) {
		if f.num == 1 {
			m.Address, err = f.str()
		}
		return err
	})
}

func (m *RampAsset) MarshalProto() ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if m.Asset != nil {
		if b, err = appendMessage(b, 1, m.Asset); err != nil {
			return nil, err
		}
	}
	if m.OffRamp != nil {
		if b, err = appendMessage(b, 2, m.OffRamp); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *RampAsset) UnmarshalProto(b []byte) error {
	*m = RampAsset{}
	return parseFields(b, func(f field) error {
		switch f.num {
		case 1:
			m.Asset = &CryptoAsset{}
			return f.message(m.Asset)
		case 2:
			m.OffRamp = &OffRamp{}
			return f.message(m.OffRamp)
		}
		return nil
	})
}

func (m *Wallet) MarshalProto() ([]byte, error) {
	b := appendString(nil, 1, m.Address)
	b = appendString(b, 2, m.Name)
	b = appendEnum(b, 3, int32(m.Protocol))
	var err error
	for _, a := range m.Assets {
		if b, err = appendMessage(b, 4, a); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *Wallet) UnmarshalProto(b []byte) error {
	*m = Wallet{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Address, err = f.str()
		case 2:
			m.Name, err = f.str()
		case 3:
			var v int32
			v, err = f.enum()
			m.Protocol = Protocol(v)
		case 4:
			a := &RampAsset{}
			if err = f.message(a); err == nil {
				m.Assets = append(m.Assets, a)
			}
		}
		return err
	})
}

func (m *WhitelistAddressRequest) MarshalProto() ([]byte, error) {
	b := appendEnum(nil, 1, int32(m.Protocol))
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.Address)
	b = appendString(b, 4, m.PublicKey)
	return appendString(b, 5, m.AddressSignature), nil
}

func (m *WhitelistAddressRequest) UnmarshalProto(b []byte) error {
	*m = WhitelistAddressRequest{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var v int32
			v, err = f.enum()
			m.Protocol = Protocol(v)
		case 2:
			m.Name, err = f.str()
		case 3:
			m.Address, err = f.str()
		case 4:
			m.PublicKey, err = f.str()
		case 5:
			m.AddressSignature, err = f.str()
		}
		return err
	})
}

func (m *WhitelistAddressResponse) MarshalProto() ([]byte, error) { return nil, nil }

func (m *WhitelistAddressResponse) UnmarshalProto(b []byte) error {
	return parseFields(b, func(field) error { return nil })
}

func (m *RemoveAddressRequest) MarshalProto() ([]byte, error) {
	b := appendEnum(nil, 1, int32(m.Protocol))
	return appendString(b, 2, m.Address), nil
}

func (m *RemoveAddressRequest) UnmarshalProto(b []byte) error {
	*m = RemoveAddressRequest{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			var v int32
			v, err = f.enum()
			m.Protocol = Protocol(v)
		case 2:
			m.Address, err = f.str()
		}
		return err
	})
}

func (m *RemoveAddressResponse) MarshalProto() ([]byte, error) { return nil, nil }

func (m *RemoveAddressResponse) UnmarshalProto(b []byte) error {
	return parseFields(b, func(field) error { return nil })
}

func (m *SetBankAccountRequest) MarshalProto() ([]byte, error) {
	return appendBankAccount(nil, 1, 2, m.BankAccount)
}

func (m *SetBankAccountRequest) UnmarshalProto(b []byte) error {
	*m = SetBankAccountRequest{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.BankAccount, err = parseIban(f)
		case 2:
			m.BankAccount, err = parseScan(f)
		}
		return err
	})
}

// Errors are written packed, the proto3 default for repeated enums
func (m *SetBankAccountResponse) MarshalProto() ([]byte, error) {
	if len(m.Errors) == 0 {
		return nil, nil
	}
	var packed []byte
	for _, e := range m.Errors {
		packed = protowire.AppendVarint(packed, uint64(int64(e)))
	}
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendBytes(b, packed), nil
}

func (m *SetBankAccountResponse) UnmarshalProto(b []byte) error {
	*m = SetBankAccountResponse{}
	return parseFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		switch f.typ {
		case protowire.VarintType:
			m.Errors = append(m.Errors, SetBankAccountError(int32(f.varint)))
		case protowire.BytesType:
			packed := f.bytes
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return protowire.ParseError(n)
				}
				m.Errors = append(m.Errors, SetBankAccountError(int32(v)))
				packed = packed[n:]
			}
		default:
			return fmt.Errorf("field 1: unexpected wire type %d", f.typ)
		}
		return nil
	})
}

func appendFeeRequest(cryptoAssetID string, protocol Protocol, amount *Amount) ([]byte, error) {
	b := appendString(nil, 1, cryptoAssetID)
	b = appendEnum(b, 2, int32(protocol))
	if amount == nil {
		return b, nil
	}
	switch amount.Case {
	case AmountCase_FiatAsset:
		return appendOneofString(b, 3, amount.Value), nil
	case AmountCase_CryptoAsset:
		return appendOneofString(b, 4, amount.Value), nil
	default:
		return nil, fmt.Errorf("unsupported amount case: %q", amount.Case)
	}
}

func parseFeeRequest(b []byte, cryptoAssetID *string, protocol *Protocol, amount **Amount) error {
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			*cryptoAssetID, err = f.str()
		case 2:
			var v int32
			v, err = f.enum()
			*protocol = Protocol(v)
		case 3, 4:
			var v string
			if v, err = f.str(); err != nil {
				return err
			}
			if f.num == 3 {
				*amount = FiatAmount(v)
			} else {
				*amount = CryptoAmount(v)
			}
		}
		return err
	})
}

func (m *EstimateOnRampFeeRequest) MarshalProto() ([]byte, error) {
	return appendFeeRequest(m.CryptoAssetID, m.Protocol, m.Amount)
}

func (m *EstimateOnRampFeeRequest) UnmarshalProto(b []byte) error {
	*m = EstimateOnRampFeeRequest{}
	return parseFeeRequest(b, &m.CryptoAssetID, &m.Protocol, &m.Amount)
}

func (m *EstimateOffRampFeeRequest) MarshalProto() ([]byte, error) {
	return appendFeeRequest(m.CryptoAssetID, m.Protocol, m.Amount)
}

func (m *EstimateOffRampFeeRequest) UnmarshalProto(b []byte) error {
	*m = EstimateOffRampFeeRequest{}
	return parseFeeRequest(b, &m.CryptoAssetID, &m.Protocol, &m.Amount)
}

func (m *FeeEstimate) MarshalProto() ([]byte, error) {
	b := appendString(nil, 1, m.CryptoAssetAmount)
	b = appendString(b, 2, m.FiatAssetAmount)
	b = appendString(b, 3, m.ExchangeRate)
	b = appendString(b, 4, m.NetworkFeeAmount)
	return appendString(b, 5, m.ProcessingFeeAmount), nil
}

func (m *FeeEstimate) UnmarshalProto(b []byte) error {
	*m = FeeEstimate{}
	return parseFields(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.CryptoAssetAmount, err = f.str()
		case 2:
			m.FiatAssetAmount, err = f.str()
		case 3:
			m.ExchangeRate, err = f.str()
		case 4:
			m.NetworkFeeAmount, err = f.str()
		case 5:
			m.ProcessingFeeAmount, err = f.str()
		}
		return err
	})
}
