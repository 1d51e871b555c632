package domain

// DefaultCryptoPairs maps crypto symbols to the primary provider's trading
// pairs. Config may extend or override these entries.
var DefaultCryptoPairs = map[string]string{
	"BTC":   "BTCUSDT",
	"ETH":   "ETHUSDT",
	"SOL":   "SOLUSDT",
	"XRP":   "XRPUSDT",
	"ADA":   "ADAUSDT",
	"DOGE":  "DOGEUSDT",
	"DOT":   "DOTUSDT",
	"AVAX":  "AVAXUSDT",
	"LINK":  "LINKUSDT",
	"BNB":   "BNBUSDT",
	"LTC":   "LTCUSDT",
	"MATIC": "MATICUSDT",
}

// DefaultCoinIDs maps crypto symbols to the secondary provider's coin
// identifiers.
var DefaultCoinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"BNB":   "binancecoin",
	"LTC":   "litecoin",
	"MATIC": "matic-network",
}

// DefaultAssetNames is the static display-name lookup used when a provider
// response carries no usable name.
var DefaultAssetNames = map[string]string{
	"PETR4":  "Petrobras PN",
	"VALE3":  "Vale ON",
	"ITUB4":  "Itaú Unibanco PN",
	"BBDC4":  "Bradesco PN",
	"BBAS3":  "Banco do Brasil ON",
	"WEGE3":  "WEG ON",
	"MGLU3":  "Magazine Luiza ON",
	"HGLG11": "CSHG Logística FII",
	"MXRF11": "Maxi Renda FII",
	"KNRI11": "Kinea Renda Imobiliária FII",
	"XPLG11": "XP Log FII",
	"AAPL":   "Apple Inc.",
	"MSFT":   "Microsoft Corporation",
	"GOOGL":  "Alphabet Inc.",
	"AMZN":   "Amazon.com Inc.",
	"TSLA":   "Tesla Inc.",
	"VOO":    "Vanguard S&P 500 ETF",
	"BTC":    "Bitcoin",
	"ETH":    "Ethereum",
	"SOL":    "Solana",
	"XRP":    "XRP",
	"ADA":    "Cardano",
	"DOGE":   "Dogecoin",
}
