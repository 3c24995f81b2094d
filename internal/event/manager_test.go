package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmitEvent_DeliversToMatchingListeners(t *testing.T) {
	defer RemoveAllListeners()

	bought := make(chan interface{}, 1)
	relisted := make(chan interface{}, 1)
	AddEventListener(MarketItemBoughtEvent, func(msg interface{}) { bought <- msg })
	AddEventListener(MarketItemRelistedEvent, func(msg interface{}) { relisted <- msg })

	EmitEvent(MarketItemBoughtEvent, uint64(4))

	select {
	case msg := <-bought:
		assert.Equal(t, uint64(4), msg)
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}

	select {
	case <-relisted:
		t.Fatal("unrelated listener was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitEvent_PreservesOrderAcrossTypes(t *testing.T) {
	defer RemoveAllListeners()

	received := make(chan interface{}, 200)
	AddListener(func(msg interface{}) { received <- msg }, MarketItemBoughtEvent, MarketItemRelistedEvent)

	for seq := uint64(0); seq < 200; seq++ {
		eventType := MarketItemBoughtEvent
		if seq%2 == 1 {
			eventType = MarketItemRelistedEvent
		}
		EmitEvent(eventType, seq)
	}

	for seq := uint64(0); seq < 200; seq++ {
		select {
		case msg := <-received:
			assert.Equal(t, seq, msg)
		case <-time.After(time.Second):
			t.Fatalf("event %d was not delivered", seq)
		}
	}
}

func TestEmitEvent_WithoutListeners(t *testing.T) {
	RemoveAllListeners()
	assert.NotPanics(t, func() { EmitEvent(RoyaltyFeeUpdatedEvent, nil) })
}
