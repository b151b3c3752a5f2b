package limiter

import (
	"context"
	"fmt"
	"time"
)

func ExampleMemoryStore() {
	store := NewMemoryStore()

	key := BuildKey("acme", "user_123", "/api/orders", "POST")
	res, err := store.Check(context.Background(), key, 10, 60, time.Now().UnixMilli())
	if err != nil {
		panic(err)
	}

	fmt.Println(res.Allowed)
	// Output:
	// true
}
