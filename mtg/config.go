package mtg

import (
	"fmt"
	"os"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/gofrs/uuid"
	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
)

type AppConfiguration struct {
	ClientId   string `toml:"client-id"`
	SessionId  string `toml:"session-id"`
	PrivateKey string `toml:"private-key"`
	PinToken   string `toml:"pin-token"`
	PIN        string `toml:"pin"`
}

type VendingConfiguration struct {
	AssetId string `toml:"asset-id"`
	Symbol  string `toml:"symbol"`
	Price   string `toml:"price"`
	Genesis int64  `toml:"genesis"`
}

type LogConfiguration struct {
	Level int `toml:"level"`
}

type Configuration struct {
	App     AppConfiguration     `toml:"app"`
	Vending VendingConfiguration `toml:"vending"`
	Log     LogConfiguration     `toml:"log"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfiguration(f)
}

func ParseConfiguration(data []byte) (*Configuration, error) {
	var conf Configuration
	err := toml.Unmarshal(data, &conf)
	if err != nil {
		return nil, err
	}
	if conf.Vending.Price == "" {
		conf.Vending.Price = "1"
	}
	if conf.Vending.Symbol == "" {
		conf.Vending.Symbol = "XRD"
	}
	if conf.Log.Level == 0 {
		conf.Log.Level = 2
	}
	price, err := decimal.NewFromString(conf.Vending.Price)
	if err != nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("invalid vending price %s", conf.Vending.Price)
	}
	if !price.Equal(price.Truncate(ledger.NativeDivisibility)) {
		return nil, fmt.Errorf("vending price %s exceeds %d decimals", conf.Vending.Price, ledger.NativeDivisibility)
	}
	if id, _ := uuid.FromString(conf.Vending.AssetId); id == uuid.Nil {
		return nil, fmt.Errorf("invalid vending asset %s", conf.Vending.AssetId)
	}
	return &conf, nil
}

func (conf *Configuration) Price() decimal.Decimal {
	price, _ := decimal.NewFromString(conf.Vending.Price)
	return price
}
