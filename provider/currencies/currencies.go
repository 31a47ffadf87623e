package currencies

import "github.com/sig-0/krwrates/storage/types"

// Supported returns the supported currency set, in display order.
// The market code is the source market index the currency's row is
// published under; the pivot has none
func Supported() []types.Descriptor {
	return []types.Descriptor{
		{Code: types.CurrencyKRW, Label: "Korean Won (KRW)", MarketCode: "", SourceUnit: 1},
		{Code: types.CurrencyUSD, Label: "US Dollar (USD)", MarketCode: "FX_USDKRW", SourceUnit: 1},
		{Code: types.CurrencyCNY, Label: "Chinese Yuan (CNY)", MarketCode: "FX_CNYKRW", SourceUnit: 1},
		{Code: types.CurrencyPHP, Label: "Philippine Peso (PHP)", MarketCode: "FX_PHPKRW", SourceUnit: 1},
		{Code: types.CurrencyTWD, Label: "Taiwan Dollar (TWD)", MarketCode: "FX_TWDKRW", SourceUnit: 1},
		{Code: types.CurrencyJPY, Label: "Japanese Yen (JPY)", MarketCode: "FX_JPYKRW", SourceUnit: 100},
		{Code: types.CurrencyVND, Label: "Vietnamese Dong (VND)", MarketCode: "FX_VNDKRW", SourceUnit: 100},
		{Code: types.CurrencyTHB, Label: "Thai Baht (THB)", MarketCode: "FX_THBKRW", SourceUnit: 1},
		{Code: types.CurrencyEUR, Label: "Euro (EUR)", MarketCode: "FX_EURKRW", SourceUnit: 1},
		{Code: types.CurrencyAUD, Label: "Australian Dollar (AUD)", MarketCode: "FX_AUDKRW", SourceUnit: 1},
	}
}

// Codes returns the supported currency codes, in display order
func Codes() []types.Currency {
	supported := Supported()
	codes := make([]types.Currency, 0, len(supported))

	for _, descriptor := range supported {
		codes = append(codes, descriptor.Code)
	}

	return codes
}
