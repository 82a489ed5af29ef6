package ledger

import "time"

// State is the view of the ledger inside a single store transaction. Every
// write becomes visible to later reads of the same State and is discarded
// when the transaction fails.
type State interface {
	ReadProperty(key []byte) ([]byte, error)
	WriteProperty(key, val []byte) error

	ReadResource(address string) (*Resource, error)
	WriteResource(r *Resource) error

	ReadNonFungible(resource string, id LocalID) (*NonFungible, error)
	WriteNonFungible(nf *NonFungible) error
	DeleteNonFungible(resource string, id LocalID) error

	ReadVault(id string) (*VaultRecord, error)
	WriteVault(v *VaultRecord) error

	ReadComponent(address string) (*ComponentRecord, error)
	WriteComponent(c *ComponentRecord) error

	ReadReceipt(id string) (*Receipt, error)
	WriteReceipt(r *Receipt) error
}

type Store interface {
	UpdateLedger(fn func(State) error) error
	ViewLedger(fn func(State) error) error
}

type Clock interface {
	Now() time.Time
}

type VaultRecord struct {
	Id       string
	Resource string
	Owner    Actor
	Amount   string
	IDs      []string
}

type ComponentRecord struct {
	Address   string
	Blueprint string
	State     []byte
	CreatedAt time.Time
}

const (
	EventMint     = "MINT"
	EventBurn     = "BURN"
	EventDeposit  = "DEPOSIT"
	EventWithdraw = "WITHDRAW"
)

type Event struct {
	Kind     string
	Resource string
	Vault    string
	Owner    Actor
	Amount   string
	IDs      []string
}

type Receipt struct {
	Id        string
	Signer    Actor
	Epoch     uint64
	Events    []*Event
	CreatedAt time.Time
}

// Burned sums the amount of resource burned by the transaction.
func (r *Receipt) Burned(resource string) string {
	total := "0"
	for _, e := range r.Events {
		if e.Kind == EventBurn && e.Resource == resource {
			total = parseAmount(total).Add(parseAmount(e.Amount)).String()
		}
	}
	return total
}

// Deposited lists the ids of resource put into the vaults of owner.
func (r *Receipt) Deposited(resource string, owner Actor) []LocalID {
	var ids []LocalID
	for _, e := range r.Events {
		if e.Kind == EventDeposit && e.Resource == resource && e.Owner == owner {
			ids = append(ids, decodeLocalIDs(e.IDs)...)
		}
	}
	return ids
}
