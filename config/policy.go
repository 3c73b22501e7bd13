package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// LoadPolicy reads the financing policy from path, falling back to
// financing.DefaultPolicy for every key the file does not set. Keys can be
// overridden from the environment with the FINANCING_ prefix, for example
// FINANCING_ANNUAL_INTEREST_RATE=0.24. An empty path or a missing file
// yields the defaults.
func LoadPolicy(path string) (financing.Policy, error) {
	defaults := financing.DefaultPolicy()

	v := viper.New()
	v.SetDefault("sticker_fee", defaults.StickerFee.String())
	v.SetDefault("processing_fee_rate", defaults.ProcessingFeeRate.String())
	v.SetDefault("charge_rate", defaults.ChargeRate.String())
	v.SetDefault("charge_cap", defaults.ChargeCap.String())
	v.SetDefault("annual_interest_rate", defaults.AnnualInterestRate.String())
	v.SetDefault("minimum_deposit_rate", defaults.MinimumDepositRate.String())
	v.SetDefault("third_party_quote_type", defaults.ThirdPartyQuoteType)
	v.SetDefault("max_installments", defaults.MaxInstallments)
	v.SetDefault("permissive_frequency", defaults.PermissiveFrequency)

	v.SetEnvPrefix("FINANCING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return financing.Policy{}, fmt.Errorf("failed to read policy file %s: %w", path, err)
		}
	}

	policy := financing.Policy{
		ThirdPartyQuoteType: v.GetString("third_party_quote_type"),
		MaxInstallments:     v.GetInt("max_installments"),
		PermissiveFrequency: v.GetBool("permissive_frequency"),
	}

	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"sticker_fee", &policy.StickerFee},
		{"processing_fee_rate", &policy.ProcessingFeeRate},
		{"charge_rate", &policy.ChargeRate},
		{"charge_cap", &policy.ChargeCap},
		{"annual_interest_rate", &policy.AnnualInterestRate},
		{"minimum_deposit_rate", &policy.MinimumDepositRate},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(v.GetString(a.key))
		if err != nil {
			return financing.Policy{}, fmt.Errorf("%w: %s: %v", financing.ErrInvalidPolicy, a.key, err)
		}
		*a.dst = d
	}

	if err := policy.Validate(); err != nil {
		return financing.Policy{}, err
	}

	return policy, nil
}
