package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	awsutil "github.com/harbour-fi/ramp-go/internal/aws"
	"github.com/harbour-fi/ramp-go/internal/keyGenerator"
	"github.com/harbour-fi/ramp-go/internal/keyGenerator/awsKms"
	"github.com/harbour-fi/ramp-go/internal/keyGenerator/localKeyGenerator"
	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/logger"
	"github.com/harbour-fi/ramp-go/pkg/offramp"
	"github.com/harbour-fi/ramp-go/pkg/rampClient"
	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/awsKmsSigner"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
	"github.com/harbour-fi/ramp-go/pkg/transactionSigner"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func accountInfoCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	resp, err := e.client.GetAccountInfo(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to get account info: %w", err)
	}
	if resp.ResultCase() == types.GetAccountInfoResultCase_Authentication {
		fmt.Printf("🔑 Log in or onboard at: %s\n", resp.Authentication.AuthenticationURL)
		return nil
	}
	return printJSON(resp.Account)
}

func whitelistAddressCommand(c *cli.Context) error {
	protocol, err := parseWhitelistProtocol(c.String("protocol"))
	if err != nil {
		return err
	}
	ownerKeyHex := c.String("owner-key")
	if ownerKeyHex == "" {
		ownerKeyHex = c.String("private-key")
	}
	if ownerKeyHex == "" {
		return fmt.Errorf("--owner-key is required unless --private-key is set")
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	owner, err := inMemorySigner.NewInMemorySignerFromHex(ownerKeyHex, signing.EthereumSignature, e.logger)
	if err != nil {
		return fmt.Errorf("invalid owner key: %w", err)
	}
	req, err := rampClient.NewWhitelistAddressRequest(owner, protocol, c.String("name"))
	if err != nil {
		return err
	}
	if _, err := e.client.WhitelistAddress(c.Context, req); err != nil {
		return fmt.Errorf("failed to whitelist address: %w", err)
	}

	store, err := openStore(c, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.AddAddresses([]string{req.Address}); err != nil {
		return err
	}

	fmt.Printf("✅ Whitelisted %s (%s)\n", req.Address, req.Name)
	return nil
}

func removeAddressCommand(c *cli.Context) error {
	protocol, err := types.ParseProtocol(c.String("protocol"))
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	_, err = e.client.RemoveAddress(c.Context, &types.RemoveAddressRequest{
		Protocol: protocol,
		Address:  c.String("address"),
	})
	if err != nil {
		return fmt.Errorf("failed to remove address: %w", err)
	}
	fmt.Printf("✅ Removed %s\n", c.String("address"))
	return nil
}

func setBankAccountCommand(c *cli.Context) error {
	account, err := parseBankAccount(c.String("iban"), c.String("sort-code"), c.String("account-number"))
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	resp, err := e.client.SetBankAccount(c.Context, &types.SetBankAccountRequest{BankAccount: account})
	if err != nil {
		return fmt.Errorf("failed to set bank account: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("bank account rejected: %s", strings.Join(msgs, ", "))
	}
	fmt.Printf("✅ Off-ramp bank account set to %s\n", account.String())
	return nil
}

func estimateOnRampFeeCommand(c *cli.Context) error {
	protocol, amount, err := parseFeeFlags(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	resp, err := e.client.EstimateOnRampFee(c.Context, &types.EstimateOnRampFeeRequest{
		CryptoAssetID: c.String("asset-id"),
		Protocol:      protocol,
		Amount:        amount,
	})
	if err != nil {
		return fmt.Errorf("failed to estimate on-ramp fee: %w", err)
	}
	return printJSON(resp)
}

func estimateOffRampFeeCommand(c *cli.Context) error {
	protocol, amount, err := parseFeeFlags(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	resp, err := e.client.EstimateOffRampFee(c.Context, &types.EstimateOffRampFeeRequest{
		CryptoAssetID: c.String("asset-id"),
		Protocol:      protocol,
		Amount:        amount,
	})
	if err != nil {
		return fmt.Errorf("failed to estimate off-ramp fee: %w", err)
	}
	return printJSON(resp)
}

func parseFeeFlags(c *cli.Context) (types.Protocol, *types.Amount, error) {
	protocol, err := types.ParseProtocol(c.String("protocol"))
	if err != nil {
		return 0, nil, err
	}
	amount, err := parseAmount(c.String("fiat-amount"), c.String("crypto-amount"))
	if err != nil {
		return 0, nil, err
	}
	return protocol, amount, nil
}

func transferCommand(c *cli.Context) error {
	network, err := types.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}
	walletKey := c.String("wallet-key")
	if walletKey == "" {
		walletKey = c.String("private-key")
	}
	transferCfg := &config.TransferConfig{
		RPCUrl:     c.String("rpc-url"),
		Network:    network,
		PrivateKey: walletKey,
	}
	if err := transferCfg.Validate(); err != nil {
		return fmt.Errorf("invalid transfer configuration: %w", err)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	ethClient, err := ethclient.DialContext(c.Context, transferCfg.RPCUrl)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", transferCfg.RPCUrl, err)
	}
	defer ethClient.Close()

	txSigner, err := transactionSigner.NewTransactionSigner(&transactionSigner.SignerConfig{PrivateKey: transferCfg.PrivateKey}, ethClient, e.logger)
	if err != nil {
		return err
	}

	info, err := e.client.GetAccountInfo(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to get account info: %w", err)
	}
	asset, err := findRampAsset(info, txSigner.GetFromAddress().Hex(), c.String("asset-id"))
	if err != nil {
		return err
	}

	transferrer, err := offramp.NewTransferrer(c.Context, txSigner, ethClient, network, e.logger)
	if err != nil {
		return err
	}
	receipt, err := transferrer.Transfer(c.Context, asset, c.String("amount"))
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}
	fmt.Printf("✅ Sent %s %s to %s in %s\n", c.String("amount"), asset.Asset.ShortName, asset.OffRamp.Address, receipt.TxHash.Hex())
	return nil
}

func listAddressesCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	store, err := openStore(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	addresses, err := store.ListAddresses()
	if err != nil {
		return err
	}
	return printJSON(addresses)
}

func clearAddressesCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	store, err := openStore(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ClearAddresses(); err != nil {
		return err
	}
	fmt.Println("✅ Address book cleared")
	return nil
}

// connectAddressesCommand asks the wallet for its accounts and remembers them
func connectAddressesCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()
	if e.snapClient == nil {
		return fmt.Errorf("addresses connect needs --signer=%s", config.SignerType_Snap)
	}

	accounts, err := e.snapClient.RequestAccounts(c.Context)
	if err != nil {
		return fmt.Errorf("failed to request accounts: %w", err)
	}

	store, err := openStore(c, e.logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.AddAddresses(accounts); err != nil {
		return err
	}
	return printJSON(accounts)
}

func signerInfoCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	switch s := e.signer.(type) {
	case *inMemorySigner.InMemorySigner:
		fmt.Printf("Signer:     inmemory\nAddress:    %s\nPublic key: %s\n",
			s.Address().Hex(), hexutil.Encode(crypto.CompressPubkey(s.PublicKey())))
		printCosmosAddress(s.PublicKey())
	case *awsKmsSigner.AwsKmsSigner:
		fmt.Printf("Signer:     awskms\nKey ID:     %s\nAddress:    %s\nPublic key: %s\n",
			s.KeyID(), s.Address().Hex(), hexutil.Encode(crypto.CompressPubkey(s.PublicKey())))
		printCosmosAddress(s.PublicKey())
		awsCfg, err := awsutil.LoadAWSConfig(c.Context, e.cfg.AwsKms.Region)
		if err != nil {
			return err
		}
		identity, err := awsutil.GetCallerIdentity(c.Context, awsCfg)
		if err != nil {
			return fmt.Errorf("failed to get caller identity: %w", err)
		}
		fmt.Printf("AWS caller: %s\n", aws.ToString(identity.Arn))
	default:
		// the snap only reveals its key with a signature
		sig, err := e.signer.Sign(c.Context, "signer-info")
		if err != nil {
			return err
		}
		fmt.Printf("Signer:     %s\nPublic key: %s\n", e.cfg.Signer, sig.PublicKey)
	}
	return nil
}

func printCosmosAddress(pub *ecdsa.PublicKey) {
	address, err := signing.CosmosAddress(pub, signing.CosmosHRP)
	if err != nil {
		return
	}
	fmt.Printf("Cosmos:     %s\n", address)
}

func generateKeyCommand(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var generator keyGenerator.IKeyGenerator
	switch backend := c.String("backend"); backend {
	case "local":
		generator = localKeyGenerator.NewLocalKeyGenerator(l)
	case "awskms":
		awsCfg, err := awsutil.LoadAWSConfig(c.Context, c.String("aws-region"))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		generator = awsKms.NewAWSKMSKeyGeneratorFromConfig(awsCfg, l)
	default:
		return fmt.Errorf("unknown key backend %q, expected local or awskms", backend)
	}

	key, err := generator.GenerateKey(c.Context, c.String("name"), c.String("alias"))
	if err != nil {
		return err
	}
	fmt.Printf("✅ Generated key %s\nAddress:    %s\nCosmos:     %s\nPublic key: %s\n",
		key.KeyID, key.Address.Hex(), key.CosmosAddress, key.PublicKeyHex())
	if key.PrivateKeyHex != "" {
		fmt.Printf("Private key: %s\n", key.PrivateKeyHex)
	}
	return nil
}
