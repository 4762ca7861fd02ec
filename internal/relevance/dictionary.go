package relevance

// MacroImpact describes what a macro keyword tends to move
type MacroImpact struct {
	Keyword     string
	Sectors     []string
	Description string
}

// macroImpacts is ordered; the first keyword found wins when a single one is needed.
var macroImpacts = []MacroImpact{
	{Keyword: "federal reserve", Sectors: []string{"bonds", "reits", "financials"}, Description: "rate-sensitive assets"},
	{Keyword: "interest rate", Sectors: []string{"bonds", "reits", "financials"}, Description: "rate-sensitive assets"},
	{Keyword: "inflation", Sectors: []string{"bonds", "consumer"}, Description: "purchasing power & fixed income"},
	{Keyword: "cpi", Sectors: []string{"bonds", "consumer"}, Description: "inflation-linked assets"},
	{Keyword: "treasury", Sectors: []string{"bonds", "bnd", "tlt", "aggy"}, Description: "bond holdings"},
	{Keyword: "oil", Sectors: []string{"energy", "xle", "transportation"}, Description: "energy & transport costs"},
	{Keyword: "opec", Sectors: []string{"energy", "xle"}, Description: "oil & energy stocks"},
	{Keyword: "recession", Sectors: []string{"cyclicals", "industrials"}, Description: "economically sensitive stocks"},
	{Keyword: "pmi", Sectors: []string{"industrials", "materials"}, Description: "manufacturing-exposed stocks"},
	{Keyword: "gdp", Sectors: []string{"broad market"}, Description: "overall portfolio"},
	{Keyword: "unemployment", Sectors: []string{"consumer", "financials"}, Description: "consumer spending & banking"},
	{Keyword: "dollar", Sectors: []string{"international", "exporters"}, Description: "currency-exposed holdings"},
	{Keyword: "china", Sectors: []string{"technology", "consumer", "semiconductors"}, Description: "Asia-exposed stocks"},
	{Keyword: "tariff", Sectors: []string{"technology", "consumer", "industrials"}, Description: "import-heavy sectors"},
}

var broadMarketETFs = map[string]bool{
	"VTI": true, "VOO": true, "SPY": true, "QQQ": true, "IWM": true, "VT": true, "VXUS": true,
}

var bondETFs = map[string]bool{
	"BND": true, "AGG": true, "TLT": true, "IEF": true, "SHY": true, "LQD": true, "HYG": true,
}

// MacroImpacts returns a copy of the keyword dictionary in order
func MacroImpacts() []MacroImpact {
	out := make([]MacroImpact, len(macroImpacts))
	copy(out, macroImpacts)
	return out
}

// IsBroadMarketETF reports whether ticker tracks the whole market
func IsBroadMarketETF(ticker string) bool {
	return broadMarketETFs[ticker]
}

// IsBondETF reports whether ticker is a bond fund
func IsBondETF(ticker string) bool {
	return bondETFs[ticker]
}
