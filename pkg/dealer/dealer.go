package dealer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/cards"
)

// Zone names a card collection managed by a Dealer.
type Zone string

const (
	ZoneDeck    Zone = "deck"
	ZoneHand    Zone = "hand"
	ZonePlay    Zone = "play"
	ZoneDiscard Zone = "discard"
)

// StandardZones are the zones every encounter uses.
var StandardZones = []Zone{ZoneDeck, ZoneHand, ZonePlay, ZoneDiscard}

// All passed to Peek returns every card in the zone.
const All = math.MaxInt

var (
	ErrUnknownZone   = errors.New("unknown zone")
	ErrDuplicateZone = errors.New("duplicate zone")
	ErrCardNotFound  = errors.New("card not found")
	ErrDuplicateCard = errors.New("card already dealt")
)

// CardInstance is one physical copy of a card.
type CardInstance struct {
	UUID uuid.UUID     `json:"uuid"`
	Card cards.CardRow `json:"card"`
}

// NewCardInstance creates a card instance with a fresh UUID.
func NewCardInstance(card cards.CardRow) CardInstance {
	return CardInstance{UUID: uuid.New(), Card: card}
}

// CardCollection is the contents of one zone.
type CardCollection struct {
	UUID  uuid.UUID      `json:"uuid"`
	Cards []CardInstance `json:"cards"`
}

// NewCollection creates a collection holding one instance per card row.
func NewCollection(rows ...cards.CardRow) *CardCollection {
	c := &CardCollection{UUID: uuid.New(), Cards: make([]CardInstance, 0, len(rows))}
	for _, row := range rows {
		c.Cards = append(c.Cards, NewCardInstance(row))
	}
	return c
}

// Shuffler produces permutations. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// NewSeededShuffler returns a deterministic Shuffler for the given seed.
func NewSeededShuffler(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Option configures a Dealer.
type Option func(*Dealer)

// WithShuffler sets the randomness source used by Shuffle.
func WithShuffler(s Shuffler) Option {
	return func(d *Dealer) {
		if s != nil {
			d.shuffler = s
		}
	}
}

// slot is the arena record for one card: the card and the zone that owns it.
type slot struct {
	card CardInstance
	zone Zone
}

type zone struct {
	uuid  uuid.UUID
	order []uuid.UUID
}

// Dealer owns every card instance of a session. Each instance lives in the
// arena tagged with exactly one zone; zones only keep the ordering of the
// instances tagged with them.
type Dealer struct {
	arena    map[uuid.UUID]*slot
	zones    map[Zone]*zone
	shuffler Shuffler
}

// New creates a Dealer with no zones.
func New(opts ...Option) *Dealer {
	d := &Dealer{
		arena:    make(map[uuid.UUID]*slot),
		zones:    make(map[Zone]*zone),
		shuffler: globalShuffler{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddCollection installs a zone. A nil collection installs an empty zone.
func (d *Dealer) AddCollection(name Zone, collection *CardCollection) error {
	if _, exists := d.zones[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateZone, name)
	}
	if collection == nil {
		collection = &CardCollection{UUID: uuid.New()}
	}

	seen := make(map[uuid.UUID]struct{}, len(collection.Cards))
	for _, c := range collection.Cards {
		if _, dealt := d.arena[c.UUID]; dealt {
			return fmt.Errorf("%w: %s is already in zone %q", ErrDuplicateCard, c.UUID, d.arena[c.UUID].zone)
		}
		if _, dup := seen[c.UUID]; dup {
			return fmt.Errorf("%w: %s appears twice in zone %q", ErrDuplicateCard, c.UUID, name)
		}
		seen[c.UUID] = struct{}{}
	}

	z := &zone{uuid: collection.UUID, order: make([]uuid.UUID, 0, len(collection.Cards))}
	if z.uuid == uuid.Nil {
		z.uuid = uuid.New()
	}
	for _, c := range collection.Cards {
		d.arena[c.UUID] = &slot{card: c, zone: name}
		z.order = append(z.order, c.UUID)
	}
	d.zones[name] = z
	return nil
}

// HasZone reports whether the zone exists.
func (d *Dealer) HasZone(name Zone) bool {
	_, ok := d.zones[name]
	return ok
}

// Zones returns the zone names in sorted order.
func (d *Dealer) Zones() []Zone {
	names := make([]Zone, 0, len(d.zones))
	for name := range d.zones {
		names = append(names, name)
	}
	sortZones(names)
	return names
}

func sortZones(names []Zone) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}

// Shuffle randomly permutes the order of a zone.
func (d *Dealer) Shuffle(name Zone) error {
	z, err := d.ensure(name)
	if err != nil {
		return err
	}
	d.shuffler.Shuffle(len(z.order), func(i, j int) {
		z.order[i], z.order[j] = z.order[j], z.order[i]
	})
	return nil
}

// Move transfers a card from one zone to the end of another and returns the
// new size of the destination zone.
func (d *Dealer) Move(id uuid.UUID, from, to Zone) (int, error) {
	src, err := d.ensure(from)
	if err != nil {
		return 0, err
	}
	dst, err := d.ensure(to)
	if err != nil {
		return 0, err
	}

	s, ok := d.arena[id]
	if !ok || s.zone != from {
		return 0, fmt.Errorf("%w: card %q does not exist in zone %q", ErrCardNotFound, id, from)
	}

	i := slices.Index(src.order, id)
	src.order = slices.Delete(src.order, i, i+1)
	dst.order = append(dst.order, id)
	s.zone = to
	return len(dst.order), nil
}

// Peek returns cards from a zone without changing it. A positive n returns
// the first n cards, a negative n the last |n|, and All every card.
func (d *Dealer) Peek(name Zone, n int) ([]CardInstance, error) {
	z, err := d.ensure(name)
	if err != nil {
		return nil, err
	}

	ids := z.order
	switch {
	case n >= 0:
		ids = ids[:min(n, len(ids))]
	default:
		count := min(-n, len(ids))
		ids = ids[len(ids)-count:]
	}

	result := make([]CardInstance, 0, len(ids))
	for _, id := range ids {
		result = append(result, d.arena[id].card)
	}
	return result, nil
}

// Len returns the number of cards in a zone, or 0 for a missing zone.
func (d *Dealer) Len(name Zone) int {
	if z, ok := d.zones[name]; ok {
		return len(z.order)
	}
	return 0
}

// Total returns the number of cards across every zone.
func (d *Dealer) Total() int {
	return len(d.arena)
}

// ZoneOf returns the zone currently holding a card.
func (d *Dealer) ZoneOf(id uuid.UUID) (Zone, bool) {
	s, ok := d.arena[id]
	if !ok {
		return "", false
	}
	return s.zone, true
}

// Find returns the card with the given UUID if it is in zone from.
func (d *Dealer) Find(id uuid.UUID, from Zone) (CardInstance, error) {
	if _, err := d.ensure(from); err != nil {
		return CardInstance{}, err
	}
	s, ok := d.arena[id]
	if !ok || s.zone != from {
		return CardInstance{}, fmt.Errorf("%w: card %q does not exist in zone %q", ErrCardNotFound, id, from)
	}
	return s.card, nil
}

// FindByFeatures returns the first card in zone from whose feature string is
// exactly features.
func (d *Dealer) FindByFeatures(features string, from Zone) (CardInstance, error) {
	z, err := d.ensure(from)
	if err != nil {
		return CardInstance{}, err
	}
	for _, id := range z.order {
		if c := d.arena[id].card; c.Card.Features == features {
			return c, nil
		}
	}
	return CardInstance{}, fmt.Errorf("%w: no card with features %q in zone %q", ErrCardNotFound, features, from)
}

// Collection returns a copy of a zone's contents.
func (d *Dealer) Collection(name Zone) (CardCollection, error) {
	z, err := d.ensure(name)
	if err != nil {
		return CardCollection{}, err
	}
	instances, _ := d.Peek(name, All)
	return CardCollection{UUID: z.uuid, Cards: instances}, nil
}

func (d *Dealer) ensure(name Zone) (*zone, error) {
	z, ok := d.zones[name]
	if !ok {
		return nil, fmt.Errorf("%w: cannot operate on missing zone %q", ErrUnknownZone, name)
	}
	return z, nil
}
