package types

import "fmt"

// Protocol is the blockchain ecosystem a wallet or asset lives in
type Protocol int32

const (
	Protocol_Unspecified Protocol = 0
	Protocol_Ethereum    Protocol = 1
	Protocol_Avax        Protocol = 2
	Protocol_Polygon     Protocol = 3
	Protocol_Cosmos      Protocol = 4
)

var protocolNames = map[Protocol]string{
	Protocol_Unspecified: "unspecified",
	Protocol_Ethereum:    "ethereum",
	Protocol_Avax:        "avax",
	Protocol_Polygon:     "polygon",
	Protocol_Cosmos:      "cosmos",
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("protocol(%d)", int32(p))
}

// IsEVM reports whether addresses on p are Ethereum style addresses
func (p Protocol) IsEVM() bool {
	switch p {
	case Protocol_Ethereum, Protocol_Avax, Protocol_Polygon:
		return true
	default:
		return false
	}
}

// ParseProtocol maps a protocol name back to its enum value
func ParseProtocol(name string) (Protocol, error) {
	for p, n := range protocolNames {
		if n == name && p != Protocol_Unspecified {
			return p, nil
		}
	}
	return Protocol_Unspecified, fmt.Errorf("unsupported protocol: %s", name)
}

// Network is the concrete chain an asset is issued on
type Network int32

const (
	Network_Unspecified     Network = 0
	Network_EthereumMainnet Network = 1
	Network_AvaxCMainnet    Network = 2
	Network_AvaxFuji        Network = 3
	Network_PolygonMainnet  Network = 4
	Network_PolygonAmoy     Network = 5
)

var networkNames = map[Network]string{
	Network_Unspecified:     "unspecified",
	Network_EthereumMainnet: "ethereum-mainnet",
	Network_AvaxCMainnet:    "avax-c-mainnet",
	Network_AvaxFuji:        "avax-fuji",
	Network_PolygonMainnet:  "polygon-mainnet",
	Network_PolygonAmoy:     "polygon-amoy",
}

func (n Network) String() string {
	if name, ok := networkNames[n]; ok {
		return name
	}
	return fmt.Sprintf("network(%d)", int32(n))
}

// SetBankAccountError is a validation failure reported by SetBankAccount
type SetBankAccountError int32

const (
	SetBankAccountError_Unspecified          SetBankAccountError = 0
	SetBankAccountError_InvalidSortCode      SetBankAccountError = 1
	SetBankAccountError_InvalidAccountNumber SetBankAccountError = 2
	SetBankAccountError_InvalidIban          SetBankAccountError = 3
)

func (e SetBankAccountError) String() string {
	switch e {
	case SetBankAccountError_InvalidSortCode:
		return "Invalid short code"
	case SetBankAccountError_InvalidAccountNumber:
		return "Invalid bank number"
	case SetBankAccountError_InvalidIban:
		return "Invalid IBAN"
	default:
		return "Problem with saving bank number"
	}
}

// ParseNetwork maps a network name back to its enum value
func ParseNetwork(name string) (Network, error) {
	for n, s := range networkNames {
		if s == name && n != Network_Unspecified {
			return n, nil
		}
	}
	return Network_Unspecified, fmt.Errorf("unsupported network: %s", name)
}
