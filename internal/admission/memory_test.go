package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryCounterDedup(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	got, err := c.TryAdmit(ctx, "coupon:issued:1:260829", "coupon:count:260829", 10, time.Minute)
	if err != nil {
		t.Fatalf("first admit failed: %v", err)
	}
	if got != Admitted {
		t.Fatalf("first admit want Admitted got %s", got)
	}

	got, err = c.TryAdmit(ctx, "coupon:issued:1:260829", "coupon:count:260829", 10, time.Minute)
	if err != nil {
		t.Fatalf("second admit failed: %v", err)
	}
	if got != AlreadyAdmitted {
		t.Fatalf("second admit want AlreadyAdmitted got %s", got)
	}
}

func TestMemoryCounterExhausted(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("coupon:issued:%d:260829", i)
		got, err := c.TryAdmit(ctx, key, "coupon:count:260829", 3, time.Minute)
		if err != nil {
			t.Fatalf("admit %d failed: %v", i, err)
		}
		if got != Admitted {
			t.Fatalf("admit %d want Admitted got %s", i, got)
		}
	}

	got, err := c.TryAdmit(ctx, "coupon:issued:99:260829", "coupon:count:260829", 3, time.Minute)
	if err != nil {
		t.Fatalf("overflow admit failed: %v", err)
	}
	if got != Exhausted {
		t.Fatalf("overflow admit want Exhausted got %s", got)
	}

	// 库存耗尽后已领取用户依旧返回 AlreadyAdmitted，而不是 Exhausted
	got, err = c.TryAdmit(ctx, "coupon:issued:0:260829", "coupon:count:260829", 3, time.Minute)
	if err != nil {
		t.Fatalf("repeat admit failed: %v", err)
	}
	if got != AlreadyAdmitted {
		t.Fatalf("repeat admit want AlreadyAdmitted got %s", got)
	}
}

// 安全性：任意并发下准入数量不超过 quantity，且每个用户至多一次。
func TestMemoryCounterConcurrentSafety(t *testing.T) {
	const quantity = 3
	const users = 64

	c := NewMemoryCounter()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Result, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("coupon:issued:%d:260829", i)
			res, err := c.TryAdmit(ctx, key, "coupon:count:260829", quantity, time.Minute)
			if err != nil {
				t.Errorf("admit %d failed: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, res := range results {
		if res == Admitted {
			admitted++
		}
	}
	if admitted != quantity {
		t.Fatalf("admitted want exactly %d got %d", quantity, admitted)
	}
}

// 规格场景：quantity=3，4 个用户并发，恰好 3 个准入 1 个缺货，
// 其中一个已准入用户再次请求得到 AlreadyAdmitted。
func TestMemoryCounterFourUsersThreeSlots(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("coupon:issued:%d:260829", i)
			res, err := c.TryAdmit(ctx, key, "coupon:count:260829", 3, time.Minute)
			if err != nil {
				t.Errorf("admit %d failed: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	admitted, exhausted := 0, 0
	winner := -1
	for i, res := range results {
		switch res {
		case Admitted:
			admitted++
			winner = i
		case Exhausted:
			exhausted++
		}
	}
	if admitted != 3 || exhausted != 1 {
		t.Fatalf("want 3 admitted / 1 exhausted, got %d / %d", admitted, exhausted)
	}

	key := fmt.Sprintf("coupon:issued:%d:260829", winner)
	res, err := c.TryAdmit(ctx, key, "coupon:count:260829", 3, time.Minute)
	if err != nil {
		t.Fatalf("fifth call failed: %v", err)
	}
	if res != AlreadyAdmitted {
		t.Fatalf("fifth call want AlreadyAdmitted got %s", res)
	}
}

func TestMemoryCounterExpiry(t *testing.T) {
	c := NewMemoryCounter()
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }
	ctx := context.Background()

	if res, _ := c.TryAdmit(ctx, "coupon:issued:1:260829", "coupon:count:260829", 1, time.Hour); res != Admitted {
		t.Fatalf("admit before expiry want Admitted got %s", res)
	}

	// 跨天后旧状态过期，同一用户可再次准入
	current = base.Add(25 * time.Hour)
	if res, _ := c.TryAdmit(ctx, "coupon:issued:1:260830", "coupon:count:260830", 1, time.Hour); res != Admitted {
		t.Fatalf("admit after expiry want Admitted got %s", res)
	}
}

func TestMemoryCounterInitBatchCounterIdempotent(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	if err := c.InitBatchCounter(ctx, "coupon:count:260829", time.Hour); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if res, _ := c.TryAdmit(ctx, "coupon:issued:1:260829", "coupon:count:260829", 1, time.Hour); res != Admitted {
		t.Fatalf("admit after init want Admitted got %s", res)
	}
	// 再次播种不得清零已有计数
	if err := c.InitBatchCounter(ctx, "coupon:count:260829", time.Hour); err != nil {
		t.Fatalf("reinit failed: %v", err)
	}
	if res, _ := c.TryAdmit(ctx, "coupon:issued:2:260829", "coupon:count:260829", 1, time.Hour); res != Exhausted {
		t.Fatalf("admit after reinit want Exhausted got %s", res)
	}
}
