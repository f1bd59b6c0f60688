package rampServer

import (
	"fmt"
	"math/big"

	"connectrpc.com/connect"

	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/types"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

const (
	fiatDecimals   = 2
	cryptoDecimals = config.USDCDecimals
	rateDecimals   = 4
)

// FeeSchedule prices ramps: a processing fee proportional to the fiat amount
// plus a flat per network fee paid in the crypto asset.
type FeeSchedule struct {
	processingFee *big.Rat
	networkFees   map[types.Network]*big.Rat
	// rates are fiat per crypto unit, by currency then asset ID
	rates map[string]map[string]*big.Rat
}

func NewFeeSchedule(cfg *config.ServerConfig) (*FeeSchedule, error) {
	pct, err := types.ParseDecimal(cfg.ProcessingFeePercent)
	if err != nil {
		return nil, fmt.Errorf("invalid processing fee: %w", err)
	}
	fs := &FeeSchedule{
		processingFee: new(big.Rat).Quo(pct, big.NewRat(100, 1)),
		networkFees:   make(map[types.Network]*big.Rat, len(cfg.NetworkFees)),
		rates:         make(map[string]map[string]*big.Rat, len(cfg.ExchangeRates)),
	}
	for network, fee := range cfg.NetworkFees {
		if fs.networkFees[network], err = types.ParseDecimal(fee); err != nil {
			return nil, fmt.Errorf("invalid network fee for %s: %w", network, err)
		}
	}
	for currency, rates := range cfg.ExchangeRates {
		fs.rates[currency] = make(map[string]*big.Rat, len(rates))
		for assetID, rate := range rates {
			if fs.rates[currency][assetID], err = types.ParseDecimal(rate); err != nil {
				return nil, fmt.Errorf("invalid exchange rate for %s/%s: %w", currency, assetID, err)
			}
		}
	}
	return fs, nil
}

type quote struct {
	rate          *big.Rat
	networkFee    *big.Rat
	amount        *big.Rat
	amountIsFiat  bool
	keepFraction  *big.Rat
	processingFee *big.Rat
}

func (fs *FeeSchedule) quote(currency string, asset *types.CryptoAsset, amount *types.Amount) (*quote, error) {
	if amount == nil {
		return nil, wire.Errorf(connect.CodeInvalidArgument, "amount is required")
	}
	value, err := types.ParseDecimal(amount.Value)
	if err != nil {
		return nil, wire.Errorf(connect.CodeInvalidArgument, "%v", err)
	}
	rate, ok := fs.rates[currency][asset.AssetID]
	if !ok || rate.Sign() == 0 {
		return nil, wire.Errorf(connect.CodeFailedPrecondition, "no %s exchange rate for %s", currency, asset.AssetID)
	}
	networkFee, ok := fs.networkFees[asset.Network]
	if !ok {
		networkFee = new(big.Rat)
	}
	return &quote{
		rate:          rate,
		networkFee:    networkFee,
		amount:        value,
		amountIsFiat:  amount.Case == types.AmountCase_FiatAsset,
		keepFraction:  new(big.Rat).Sub(big.NewRat(1, 1), fs.processingFee),
		processingFee: fs.processingFee,
	}, nil
}

func estimate(crypto, fiat, rate, networkFee, processing *big.Rat) (*types.FeeEstimate, error) {
	if crypto.Sign() < 0 || fiat.Sign() < 0 {
		return nil, wire.Errorf(connect.CodeInvalidArgument, "amount does not cover fees")
	}
	return &types.FeeEstimate{
		CryptoAssetAmount:   crypto.FloatString(cryptoDecimals),
		FiatAssetAmount:     fiat.FloatString(fiatDecimals),
		ExchangeRate:        rate.FloatString(rateDecimals),
		NetworkFeeAmount:    networkFee.FloatString(cryptoDecimals),
		ProcessingFeeAmount: processing.FloatString(fiatDecimals),
	}, nil
}

// EstimateOnRamp prices paying fiat in and receiving crypto
func (fs *FeeSchedule) EstimateOnRamp(currency string, asset *types.CryptoAsset, amount *types.Amount) (*types.FeeEstimate, error) {
	q, err := fs.quote(currency, asset, amount)
	if err != nil {
		return nil, err
	}
	if q.amountIsFiat {
		fiat := q.amount
		processing := new(big.Rat).Mul(fiat, q.processingFee)
		gross := new(big.Rat).Quo(new(big.Rat).Sub(fiat, processing), q.rate)
		crypto := gross.Sub(gross, q.networkFee)
		return estimate(crypto, fiat, q.rate, q.networkFee, processing)
	}
	crypto := q.amount
	net := new(big.Rat).Mul(new(big.Rat).Add(crypto, q.networkFee), q.rate)
	fiat := new(big.Rat).Quo(net, q.keepFraction)
	processing := new(big.Rat).Sub(fiat, net)
	return estimate(crypto, fiat, q.rate, q.networkFee, processing)
}

// EstimateOffRamp prices sending crypto in and receiving fiat
func (fs *FeeSchedule) EstimateOffRamp(currency string, asset *types.CryptoAsset, amount *types.Amount) (*types.FeeEstimate, error) {
	q, err := fs.quote(currency, asset, amount)
	if err != nil {
		return nil, err
	}
	if q.amountIsFiat {
		fiat := q.amount
		gross := new(big.Rat).Quo(fiat, q.keepFraction)
		processing := new(big.Rat).Sub(gross, fiat)
		crypto := new(big.Rat).Quo(gross, q.rate)
		crypto.Add(crypto, q.networkFee)
		return estimate(crypto, fiat, q.rate, q.networkFee, processing)
	}
	crypto := q.amount
	gross := new(big.Rat).Mul(new(big.Rat).Sub(crypto, q.networkFee), q.rate)
	processing := new(big.Rat).Mul(gross, q.processingFee)
	fiat := gross.Sub(gross, processing)
	return estimate(crypto, fiat, q.rate, q.networkFee, processing)
}
