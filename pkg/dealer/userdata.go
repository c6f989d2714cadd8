package dealer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/cards"
)

var ErrUnknownCardID = errors.New("unknown card id")

// StoredCard is the persisted form of a CardInstance. Card content is looked
// up again by id when the dealer is restored.
type StoredCard struct {
	UUID uuid.UUID `json:"uuid"`
	ID   string    `json:"id"`
}

// StoredCollection is the persisted form of a CardCollection.
type StoredCollection struct {
	UUID  uuid.UUID    `json:"uuid"`
	Cards []StoredCard `json:"cards"`
}

// UserData is the persisted form of a Dealer, keyed by zone.
type UserData map[Zone]StoredCollection

// CardLookup resolves card ids to card rows. cards.CardTable satisfies it.
type CardLookup interface {
	ByID(id string) (cards.CardRow, bool)
}

// ToUserData snapshots every zone of the dealer.
func (d *Dealer) ToUserData() UserData {
	data := make(UserData, len(d.zones))
	for name, z := range d.zones {
		stored := StoredCollection{UUID: z.uuid, Cards: make([]StoredCard, 0, len(z.order))}
		for _, id := range z.order {
			stored.Cards = append(stored.Cards, StoredCard{UUID: id, ID: d.arena[id].card.Card.ID})
		}
		data[name] = stored
	}
	return data
}

// FromUserData rebuilds a Dealer from a snapshot.
func FromUserData(data UserData, lookup CardLookup, opts ...Option) (*Dealer, error) {
	d := New(opts...)

	// Install zones in a stable order so errors are deterministic.
	names := make([]Zone, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sortZones(names)

	for _, name := range names {
		stored := data[name]
		collection := &CardCollection{UUID: stored.UUID, Cards: make([]CardInstance, 0, len(stored.Cards))}
		for _, sc := range stored.Cards {
			row, ok := lookup.ByID(sc.ID)
			if !ok {
				return nil, fmt.Errorf("%w: %q in zone %q", ErrUnknownCardID, sc.ID, name)
			}
			collection.Cards = append(collection.Cards, CardInstance{UUID: sc.UUID, Card: row})
		}
		if err := d.AddCollection(name, collection); err != nil {
			return nil, err
		}
	}
	return d, nil
}
