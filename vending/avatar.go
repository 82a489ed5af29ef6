package vending

import (
	"github.com/MixinNetwork/infinite/ledger"
	"github.com/shopspring/decimal"
)

const (
	imageHost = "https://radixwalletimages.s3.us-east-2.amazonaws.com/gifs/"

	CollectionName     = "Dimensions Classic Collection"
	CollectionImageURL = imageHost + "infinite_favicon.png"
	TradeBadgeName     = "Avatar Trader"
)

// Avatar is the data of each collectible in the classic collection. NftId
// always equals the integer local id.
type Avatar struct {
	Name           string
	CollectionType string
	KeyImageURL    string
	NftId          string
}

type TradeBadge struct {
	MintedOn uint64
}

type Item struct {
	Id     ledger.LocalID
	Avatar *Avatar
}

func (a *Avatar) NftIdDecimal() decimal.Decimal {
	id, err := decimal.NewFromString(a.NftId)
	if err != nil {
		panic(a.NftId)
	}
	return id
}

// Catalog returns the seven avatars minted at instantiation, in id order.
func Catalog() []*Item {
	avatars := []struct {
		name, collection, image string
	}{
		{"Cat", "OCI Cat", "8.gif"},
		{"Dog", "Doge", "9.gif"},
		{"Gnome", "Gnomes", "10.gif"},
		{"Fractal", "Radical Fractals", "4.gif"},
		{"Penguin 1", "Pengus", "5.gif"},
		{"Penguin 2", "Pengus", "6.gif"},
		{"Robot", "Rad Robo", "7.gif"},
	}
	items := make([]*Item, len(avatars))
	for i, a := range avatars {
		n := uint64(i + 1)
		items[i] = &Item{
			Id: ledger.IntegerLocalID(n),
			Avatar: &Avatar{
				Name:           a.name,
				CollectionType: a.collection,
				KeyImageURL:    imageHost + a.image,
				NftId:          decimal.NewFromInt(int64(n)).String(),
			},
		}
	}
	return items
}
