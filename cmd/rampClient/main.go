package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/harbour-fi/ramp-go/pkg/clients/snap"
	"github.com/harbour-fi/ramp-go/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "ramp-client",
		Usage: "Signed client for the ramp API",
		Description: `Calls the ramp service with every request signed by the configured key.

Signers:
- inmemory: a hex secp256k1 private key
- snap: the ramp snap running in a wallet, reached through a JSON-RPC bridge
- awskms: a secp256k1 key held in AWS KMS`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "Base URL of the ramp API",
				Value:   "http://localhost:8080",
				EnvVars: []string{config.EnvRampEndpoint},
			},
			&cli.StringFlag{
				Name:    "signer",
				Usage:   "Request signer: inmemory, snap or awskms",
				Value:   string(config.SignerType_InMemory),
				EnvVars: []string{config.EnvRampSigner},
			},
			&cli.StringFlag{
				Name:    "scheme",
				Usage:   "Signature scheme: ethereum or cosmos",
				Value:   string(config.SignatureScheme_Ethereum),
				EnvVars: []string{config.EnvRampSignatureScheme},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Usage:   "Hex private key of the inmemory signer",
				EnvVars: []string{config.EnvRampPrivateKey},
			},
			&cli.StringFlag{
				Name:    "snap-bridge-url",
				Usage:   "JSON-RPC endpoint relaying calls to the wallet",
				Value:   snap.DefaultConfig().BridgeURL,
				EnvVars: []string{config.EnvRampSnapBridgeURL},
			},
			&cli.StringFlag{
				Name:    "snap-id",
				Usage:   "ID of the ramp snap",
				Value:   snap.DefaultSnapID,
				EnvVars: []string{config.EnvRampSnapID},
			},
			&cli.StringFlag{
				Name:    "snap-version",
				Usage:   "Required version of the ramp snap",
				EnvVars: []string{config.EnvRampSnapVersion},
			},
			&cli.StringFlag{
				Name:    "aws-kms-key-id",
				Usage:   "Key ID, ARN or alias of the AWS KMS signing key",
				EnvVars: []string{config.EnvRampAwsKmsKeyID},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region override",
				EnvVars: []string{config.EnvRampAwsRegion},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout of each API call",
				EnvVars: []string{config.EnvRampTimeout},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Maximum API calls per second, 0 for unlimited",
				EnvVars: []string{config.EnvRampRateLimit},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Address book store: memory, redis or badger",
				Value:   string(config.StoreType_Badger),
				EnvVars: []string{config.EnvRampStore},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address of the redis store",
				EnvVars: []string{config.EnvRampRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password of the redis store",
				EnvVars: []string{config.EnvRampRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database of the redis store",
				EnvVars: []string{config.EnvRampRedisDB},
			},
			&cli.StringFlag{
				Name:    "badger-dir",
				Usage:   "Directory of the badger store",
				Value:   defaultBadgerDir(),
				EnvVars: []string{config.EnvRampBadgerDir},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvRampDebug},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "account-info",
				Usage:  "Show the account of the signing key",
				Action: accountInfoCommand,
			},
			{
				Name:  "whitelist-address",
				Usage: "Whitelist a wallet address, proving ownership with its key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name of the wallet", Required: true},
					&cli.StringFlag{Name: "protocol", Usage: "Wallet protocol", Value: "ethereum"},
					&cli.StringFlag{Name: "owner-key", Usage: "Hex private key of the wallet (defaults to --private-key)"},
				},
				Action: whitelistAddressCommand,
			},
			{
				Name:  "remove-address",
				Usage: "Remove a whitelisted wallet address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Usage: "Wallet address", Required: true},
					&cli.StringFlag{Name: "protocol", Usage: "Wallet protocol", Value: "ethereum"},
				},
				Action: removeAddressCommand,
			},
			{
				Name:  "set-bank-account",
				Usage: "Set the off-ramp bank account (IBAN, or sort code and account number)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "iban", Usage: "IBAN"},
					&cli.StringFlag{Name: "sort-code", Usage: "UK sort code"},
					&cli.StringFlag{Name: "account-number", Usage: "UK account number"},
				},
				Action: setBankAccountCommand,
			},
			{
				Name:   "estimate-onramp-fee",
				Usage:  "Estimate the fees of buying a crypto asset",
				Flags:  feeFlags(),
				Action: estimateOnRampFeeCommand,
			},
			{
				Name:   "estimate-offramp-fee",
				Usage:  "Estimate the fees of selling a crypto asset",
				Flags:  feeFlags(),
				Action: estimateOffRampFeeCommand,
			},
			{
				Name:  "transfer",
				Usage: "Send USDC to the off-ramp address of a whitelisted wallet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset-id", Usage: "Crypto asset ID", Required: true},
					&cli.StringFlag{Name: "amount", Usage: "Amount in asset units, e.g. 12.5", Required: true},
					&cli.StringFlag{Name: "rpc-url", Usage: "RPC URL of the asset's network", EnvVars: []string{config.EnvRampRPCURL}, Required: true},
					&cli.StringFlag{
						Name:    "network",
						Usage:   "Network to transfer on: " + config.GetSupportedNetworksString(),
						EnvVars: []string{config.EnvRampNetwork},
						Value:   "avax-fuji",
					},
					&cli.StringFlag{Name: "wallet-key", Usage: "Hex private key of the sending wallet (defaults to --private-key)"},
				},
				Action: transferCommand,
			},
			{
				Name:  "addresses",
				Usage: "Manage the local address book",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List the stored addresses", Action: listAddressesCommand},
					{Name: "clear", Usage: "Forget every stored address", Action: clearAddressesCommand},
					{Name: "connect", Usage: "Add the accounts the wallet exposes", Action: connectAddressesCommand},
				},
			},
			{
				Name:   "signer-info",
				Usage:  "Show the key requests are signed with",
				Action: signerInfoCommand,
			},
			{
				Name:  "generate-key",
				Usage: "Generate a secp256k1 signing key",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "backend", Usage: "Where the key lives: local or awskms", Value: "local"},
					&cli.StringFlag{Name: "name", Usage: "Key name tag", Value: "ramp"},
					&cli.StringFlag{Name: "alias", Usage: "Alias to create, without the alias/ prefix"},
				},
				Action: generateKeyCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func feeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "asset-id", Usage: "Crypto asset ID", Value: "USDC"},
		&cli.StringFlag{Name: "protocol", Usage: "Protocol of the receiving or sending wallet", Value: "avax"},
		&cli.StringFlag{Name: "fiat-amount", Usage: "Amount in fiat"},
		&cli.StringFlag{Name: "crypto-amount", Usage: "Amount in the crypto asset"},
	}
}
