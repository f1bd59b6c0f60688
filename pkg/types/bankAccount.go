package types

import (
	"fmt"
	"regexp"
	"strings"
)

type IbanCoordinates struct {
	Iban string `json:"iban"`
}

// ScanCoordinates are UK style sort code + account number coordinates
type ScanCoordinates struct {
	SortCode      string `json:"sortCode"`
	AccountNumber string `json:"accountNumber"`
}

type BankAccountCase string

const (
	BankAccountCase_Iban BankAccountCase = "iban"
	BankAccountCase_Scan BankAccountCase = "scan"
)

// BankAccount is the fiat settlement account of a user. Exactly one of Iban
// and Scan is set, matching Case.
type BankAccount struct {
	Case BankAccountCase  `json:"case"`
	Iban *IbanCoordinates `json:"iban,omitempty"`
	Scan *ScanCoordinates `json:"scan,omitempty"`
}

func NewIbanBankAccount(iban IbanCoordinates) *BankAccount {
	return &BankAccount{Case: BankAccountCase_Iban, Iban: &iban}
}

func NewScanBankAccount(scan ScanCoordinates) *BankAccount {
	return &BankAccount{Case: BankAccountCase_Scan, Scan: &scan}
}

// Currency returns the fiat currency settled through the account: EUR over
// IBAN, GBP over sort code + account number.
func (b *BankAccount) Currency() string {
	switch b.Case {
	case BankAccountCase_Iban:
		return "EUR"
	case BankAccountCase_Scan:
		return "GBP"
	default:
		return ""
	}
}

// Empty returns an account of the same case with blank coordinates
func (b *BankAccount) Empty() *BankAccount {
	if b.Case == BankAccountCase_Scan {
		return NewScanBankAccount(ScanCoordinates{})
	}
	return NewIbanBankAccount(IbanCoordinates{})
}

func (b *BankAccount) String() string {
	switch b.Case {
	case BankAccountCase_Iban:
		if b.Iban != nil {
			return fmt.Sprintf("IBAN %s", b.Iban.Iban)
		}
	case BankAccountCase_Scan:
		if b.Scan != nil {
			return fmt.Sprintf("SCAN %s %s", b.Scan.SortCode, b.Scan.AccountNumber)
		}
	}
	return "unset"
}

var (
	sortCodePattern      = regexp.MustCompile(`^\d{6}$`)
	accountNumberPattern = regexp.MustCompile(`^\d{8}$`)
	ibanPattern          = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{11,30}$`)
)

// NormalizeSortCode strips the dashes and spaces users type into sort codes
func NormalizeSortCode(sortCode string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(sortCode)
}

// NormalizeIban strips spaces and upper-cases an IBAN
func NormalizeIban(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
}

// Validate returns the validation errors SetBankAccount would report for the account
func (b *BankAccount) Validate() []SetBankAccountError {
	var errs []SetBankAccountError
	switch b.Case {
	case BankAccountCase_Iban:
		if b.Iban == nil || !ibanPattern.MatchString(NormalizeIban(b.Iban.Iban)) {
			errs = append(errs, SetBankAccountError_InvalidIban)
		}
	case BankAccountCase_Scan:
		if b.Scan == nil {
			return []SetBankAccountError{SetBankAccountError_InvalidSortCode, SetBankAccountError_InvalidAccountNumber}
		}
		if !sortCodePattern.MatchString(NormalizeSortCode(b.Scan.SortCode)) {
			errs = append(errs, SetBankAccountError_InvalidSortCode)
		}
		if !accountNumberPattern.MatchString(b.Scan.AccountNumber) {
			errs = append(errs, SetBankAccountError_InvalidAccountNumber)
		}
	default:
		errs = append(errs, SetBankAccountError_Unspecified)
	}
	return errs
}

// GetOnRampBankAccount returns the account the user pays fiat in from
func GetOnRampBankAccount(account *Account) (*BankAccount, error) {
	if account == nil || account.OnrampBankAccount == nil {
		return nil, fmt.Errorf("onramp bank account must be set")
	}
	return account.OnrampBankAccount, nil
}

// GetOffRampBankAccount returns the account fiat is paid out to. When none is
// configured yet, it returns a blank account of the same kind as the on-ramp
// account so the user can fill it in.
func GetOffRampBankAccount(account *Account) (*BankAccount, error) {
	if account == nil {
		return nil, fmt.Errorf("account cannot be nil")
	}
	if account.OfframpBankAccount != nil {
		return account.OfframpBankAccount, nil
	}
	if account.OnrampBankAccount == nil {
		return nil, fmt.Errorf("onramp bank account must always be set")
	}
	return account.OnrampBankAccount.Empty(), nil
}

// GetRampBankAccount returns the off-ramp account if configured, otherwise the on-ramp one
func GetRampBankAccount(account *Account) (*BankAccount, error) {
	if account == nil {
		return nil, fmt.Errorf("account cannot be nil")
	}
	if account.OfframpBankAccount != nil {
		return account.OfframpBankAccount, nil
	}
	if account.OnrampBankAccount != nil {
		return account.OnrampBankAccount, nil
	}
	return nil, fmt.Errorf("either offramp or onramp bank account must always be set")
}
