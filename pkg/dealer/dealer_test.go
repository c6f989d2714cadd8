package dealer

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCardTable = cards.CardTable{
	{ID: "card-1", Text: "I condemn", Features: "disagree butt"},
	{ID: "card-2", Text: "A, B, C", Features: "agree listen"},
	{ID: "card-3", Text: "What's that?", Features: "listen"},
}

func testUUID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func testDeck() *CardCollection {
	return &CardCollection{
		UUID: testUUID(100),
		Cards: []CardInstance{
			{UUID: testUUID(0), Card: testCardTable[0]},
			{UUID: testUUID(10), Card: testCardTable[1]},
			{UUID: testUUID(11), Card: testCardTable[1]},
			{UUID: testUUID(20), Card: testCardTable[2]},
			{UUID: testUUID(21), Card: testCardTable[2]},
			{UUID: testUUID(23), Card: testCardTable[2]},
		},
	}
}

func setupDealer(t *testing.T, opts ...Option) *Dealer {
	t.Helper()
	d := New(opts...)
	require.NoError(t, d.AddCollection(ZoneDeck, testDeck()))
	require.NoError(t, d.AddCollection(ZoneHand, nil))
	require.NoError(t, d.AddCollection(ZonePlay, nil))
	require.NoError(t, d.AddCollection(ZoneDiscard, nil))
	return d
}

func uuidsOf(instances []CardInstance) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(instances))
	for _, c := range instances {
		ids = append(ids, c.UUID)
	}
	return ids
}

func sortedUUIDs(d *Dealer) []string {
	var ids []string
	for _, z := range d.Zones() {
		instances, _ := d.Peek(z, All)
		for _, c := range instances {
			ids = append(ids, c.UUID.String())
		}
	}
	sort.Strings(ids)
	return ids
}

func TestAddCollection(t *testing.T) {
	t.Run("adds an empty zone", func(t *testing.T) {
		d := New()
		require.NoError(t, d.AddCollection(ZoneHand, nil))

		c, err := d.Collection(ZoneHand)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, c.UUID)
		assert.Empty(t, c.Cards)
	})

	t.Run("associates an existing collection", func(t *testing.T) {
		d := New()
		require.NoError(t, d.AddCollection(ZoneDeck, testDeck()))

		c, err := d.Collection(ZoneDeck)
		require.NoError(t, err)
		assert.Equal(t, *testDeck(), c)
	})

	t.Run("rejects a duplicate zone", func(t *testing.T) {
		d := New()
		require.NoError(t, d.AddCollection(ZoneHand, nil))
		err := d.AddCollection(ZoneHand, nil)
		assert.True(t, errors.Is(err, ErrDuplicateZone))
	})

	t.Run("rejects cards already owned by another zone", func(t *testing.T) {
		d := New()
		require.NoError(t, d.AddCollection(ZoneDeck, testDeck()))
		err := d.AddCollection(ZoneHand, testDeck())
		assert.True(t, errors.Is(err, ErrDuplicateCard))
		assert.False(t, d.HasZone(ZoneHand))
		assert.Equal(t, 6, d.Total())
	})
}

func TestShuffle(t *testing.T) {
	d := setupDealer(t, WithShuffler(NewSeededShuffler(42)))
	before, _ := d.Peek(ZoneDeck, All)

	require.NoError(t, d.Shuffle(ZoneDeck))
	after, _ := d.Peek(ZoneDeck, All)

	assert.ElementsMatch(t, uuidsOf(before), uuidsOf(after))
	assert.Equal(t, 6, d.Len(ZoneDeck))

	err := d.Shuffle("graveyard")
	assert.True(t, errors.Is(err, ErrUnknownZone))
}

func TestShuffle_Deterministic(t *testing.T) {
	a := setupDealer(t, WithShuffler(NewSeededShuffler(7)))
	b := setupDealer(t, WithShuffler(NewSeededShuffler(7)))
	require.NoError(t, a.Shuffle(ZoneDeck))
	require.NoError(t, b.Shuffle(ZoneDeck))

	aCards, _ := a.Peek(ZoneDeck, All)
	bCards, _ := b.Peek(ZoneDeck, All)
	assert.Equal(t, uuidsOf(aCards), uuidsOf(bCards))
}

// fixedShuffler reverses the zone so tests can check order changes.
type fixedShuffler struct{}

func (fixedShuffler) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestShuffle_UsesShuffler(t *testing.T) {
	d := setupDealer(t, WithShuffler(fixedShuffler{}))
	require.NoError(t, d.Shuffle(ZoneDeck))

	after, _ := d.Peek(ZoneDeck, All)
	assert.Equal(t, []uuid.UUID{testUUID(23), testUUID(21), testUUID(20), testUUID(11), testUUID(10), testUUID(0)}, uuidsOf(after))
}

func TestMove(t *testing.T) {
	t.Run("moves to the end of the destination", func(t *testing.T) {
		d := setupDealer(t)
		id := testUUID(0)

		size, err := d.Move(id, ZoneDeck, ZoneHand)
		require.NoError(t, err)
		assert.Equal(t, 1, size)

		size, err = d.Move(testUUID(20), ZoneDeck, ZoneHand)
		require.NoError(t, err)
		assert.Equal(t, 2, size)

		deck, _ := d.Peek(ZoneDeck, All)
		hand, _ := d.Peek(ZoneHand, All)
		assert.Equal(t, []uuid.UUID{testUUID(10), testUUID(11), testUUID(21), testUUID(23)}, uuidsOf(deck))
		assert.Equal(t, []uuid.UUID{testUUID(0), testUUID(20)}, uuidsOf(hand))

		zone, ok := d.ZoneOf(id)
		assert.True(t, ok)
		assert.Equal(t, ZoneHand, zone)
	})

	t.Run("fails for a card not in the from zone", func(t *testing.T) {
		d := setupDealer(t)
		id := testUUID(0)
		_, err := d.Move(id, ZoneDeck, ZoneHand)
		require.NoError(t, err)

		_, err = d.Move(id, ZoneDeck, ZoneHand)
		assert.True(t, errors.Is(err, ErrCardNotFound))
		assert.Equal(t, 5, d.Len(ZoneDeck))
		assert.Equal(t, 1, d.Len(ZoneHand))
	})

	t.Run("fails for unknown zones", func(t *testing.T) {
		d := setupDealer(t)
		_, err := d.Move(testUUID(0), "graveyard", ZoneHand)
		assert.True(t, errors.Is(err, ErrUnknownZone))
		_, err = d.Move(testUUID(0), ZoneDeck, "graveyard")
		assert.True(t, errors.Is(err, ErrUnknownZone))
		assert.Equal(t, 6, d.Len(ZoneDeck))
	})
}

func TestMove_ConservesCustody(t *testing.T) {
	d := setupDealer(t, WithShuffler(NewSeededShuffler(3)))
	before := sortedUUIDs(d)

	steps := []struct{ from, to Zone }{
		{ZoneDeck, ZoneHand},
		{ZoneDeck, ZoneHand},
		{ZoneHand, ZonePlay},
		{ZoneDeck, ZoneHand},
		{ZonePlay, ZoneDiscard},
		{ZoneHand, ZonePlay},
		{ZoneDiscard, ZoneDeck},
	}
	for _, step := range steps {
		top, err := d.Peek(step.from, 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		_, err = d.Move(top[0].UUID, step.from, step.to)
		require.NoError(t, err)
		require.NoError(t, d.Shuffle(ZoneDeck))

		assert.Equal(t, before, sortedUUIDs(d))
		total := 0
		for _, z := range d.Zones() {
			total += d.Len(z)
		}
		assert.Equal(t, d.Total(), total)
	}
}

func TestPeek(t *testing.T) {
	d := setupDealer(t)

	tests := []struct {
		name     string
		n        int
		expected []uuid.UUID
	}{
		{"top card", 1, []uuid.UUID{testUUID(0)}},
		{"top two", 2, []uuid.UUID{testUUID(0), testUUID(10)}},
		{"more than the zone holds", 10, uuidsOf(testDeck().Cards)},
		{"all", All, uuidsOf(testDeck().Cards)},
		{"last card", -1, []uuid.UUID{testUUID(23)}},
		{"last two", -2, []uuid.UUID{testUUID(21), testUUID(23)}},
		{"last more than the zone holds", -10, uuidsOf(testDeck().Cards)},
		{"none", 0, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Peek(ZoneDeck, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, uuidsOf(got))
		})
	}

	assert.Equal(t, 6, d.Len(ZoneDeck), "peek must not mutate")

	_, err := d.Peek("graveyard", 1)
	assert.True(t, errors.Is(err, ErrUnknownZone))
}

func TestFind(t *testing.T) {
	d := setupDealer(t)

	c, err := d.Find(testUUID(11), ZoneDeck)
	require.NoError(t, err)
	assert.Equal(t, "card-2", c.Card.ID)

	_, err = d.Find(testUUID(11), ZoneHand)
	assert.True(t, errors.Is(err, ErrCardNotFound))

	_, err = d.Find(testUUID(11), "graveyard")
	assert.True(t, errors.Is(err, ErrUnknownZone))

	c, err = d.FindByFeatures("agree listen", ZoneDeck)
	require.NoError(t, err)
	assert.Equal(t, testUUID(10), c.UUID)

	_, err = d.FindByFeatures("agree", ZoneDeck)
	assert.True(t, errors.Is(err, ErrCardNotFound))
}

func TestUserData_RoundTrip(t *testing.T) {
	d := setupDealer(t)
	_, err := d.Move(testUUID(10), ZoneDeck, ZoneHand)
	require.NoError(t, err)
	_, err = d.Move(testUUID(0), ZoneDeck, ZoneDiscard)
	require.NoError(t, err)

	data := d.ToUserData()
	assert.Equal(t, []StoredCard{{UUID: testUUID(10), ID: "card-2"}}, data[ZoneHand].Cards)
	assert.Equal(t, testUUID(100), data[ZoneDeck].UUID)

	restored, err := FromUserData(data, testCardTable)
	require.NoError(t, err)
	assert.Equal(t, d.Zones(), restored.Zones())
	for _, z := range d.Zones() {
		want, _ := d.Collection(z)
		got, _ := restored.Collection(z)
		assert.Equal(t, want, got, "zone %s", z)
	}
}

func TestFromUserData_UnknownCard(t *testing.T) {
	data := UserData{
		ZoneHand: {UUID: testUUID(1), Cards: []StoredCard{{UUID: testUUID(2), ID: "card-404"}}},
	}
	_, err := FromUserData(data, testCardTable)
	assert.True(t, errors.Is(err, ErrUnknownCardID))
}
