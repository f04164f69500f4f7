package cart

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/boostmart/internal/model"
)

func snap(id string, price string) model.ServiceSnapshot {
	return model.ServiceSnapshot{ID: id, Title: "Service " + id, Price: decimal.RequireFromString(price)}
}

func TestAddItem_MergesSameService(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 1)
	c.AddItem(snap("a", "10"), 2)
	c.AddItem(snap("b", "5"), 1)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Service.ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 4, c.ItemCount())
	assert.True(t, c.Total().Equal(decimal.NewFromInt(35)))
}

func TestAddItem_ClampsQuantity(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 0)
	c.AddItem(snap("b", "10"), -4)

	for _, it := range c.Items() {
		assert.Equal(t, 1, it.Quantity)
	}
}

func TestAddItem_KeepsPriceSnapshot(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 1)
	c.AddItem(snap("a", "99"), 1)

	assert.True(t, c.Total().Equal(decimal.NewFromInt(20)))
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 1)
	c.RemoveItem("missing")

	assert.Len(t, c.Items(), 1)
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 1)

	c.UpdateQuantity("a", 5)
	assert.Equal(t, 5, c.ItemCount())

	c.UpdateQuantity("unknown", 3)
	assert.Len(t, c.Items(), 1, "unknown service must not be added")

	c.UpdateQuantity("a", 0)
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	a := New()
	b := New()
	for _, c := range []*Cart{a, b} {
		c.AddItem(snap("x", "3.50"), 2)
		c.AddItem(snap("y", "1.25"), 1)
	}

	a.UpdateQuantity("x", 0)
	b.RemoveItem("x")

	assert.Equal(t, b.ItemCount(), a.ItemCount())
	assert.True(t, a.Total().Equal(b.Total()))
	require.Len(t, a.Items(), 1)
	assert.Equal(t, b.Items()[0].Service.ID, a.Items()[0].Service.ID)
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}
	prices := map[string]string{"a": "10", "b": "5.5", "c": "0.99", "d": "0"}

	c := New()
	for i := 0; i < 500; i++ {
		id := ids[rnd.Intn(len(ids))]
		switch rnd.Intn(3) {
		case 0:
			c.AddItem(snap(id, prices[id]), rnd.Intn(4))
		case 1:
			c.RemoveItem(id)
		case 2:
			c.UpdateQuantity(id, rnd.Intn(5)-1)
		}

		seen := map[string]bool{}
		want := decimal.Zero
		count := 0
		for _, it := range c.Items() {
			require.False(t, seen[it.Service.ID], "duplicate service %s", it.Service.ID)
			seen[it.Service.ID] = true
			require.GreaterOrEqual(t, it.Quantity, 1)
			want = want.Add(it.Service.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			count += it.Quantity
		}
		require.True(t, c.Total().Equal(want), "total %s != %s", c.Total(), want)
		require.Equal(t, count, c.ItemCount())
	}
}

func TestSnapshotAndClear(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 2)

	lines := c.Snapshot()
	c.Clear()

	require.Len(t, lines, 1)
	assert.Equal(t, model.LineItem{ServiceID: "a", Name: "Service a", Price: decimal.RequireFromString("10"), Quantity: 2}, lines[0])
	assert.True(t, c.Total().IsZero())
	assert.Equal(t, 0, c.ItemCount())
}

func TestSettle(t *testing.T) {
	c := New()
	c.AddItem(snap("a", "10"), 2)
	c.AddItem(snap("b", "5"), 1)

	lines := c.Snapshot()

	c.AddItem(snap("a", "10"), 1)
	c.AddItem(snap("c", "3"), 1)
	c.Settle(lines)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Service.ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "c", items[1].Service.ID)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(13)))

	c.Settle(c.Snapshot())
	assert.True(t, c.IsEmpty())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	c := r.Get("s1")
	c.AddItem(snap("a", "1"), 1)

	assert.Same(t, c, r.Get("s1"))
	assert.True(t, r.Get("s2").IsEmpty())

	r.Drop("s1")
	assert.True(t, r.Get("s1").IsEmpty())
}
