package feed

import (
	"context"
	"io"
)

// Item is one element of a reading stream: either a Reading or a terminal
// error.
type Item struct {
	Reading Reading
	Err     error
}

// Stream scans r on a background goroutine and delivers readings on the
// returned channel. A parse or read error is delivered as the final Item. The
// channel is closed at end of input or when ctx is done. A goroutine blocked
// in a read of r only exits once that read returns.
func Stream(ctx context.Context, r io.Reader) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		sc := NewScanner(r)
		for sc.Scan() {
			if !send(ctx, out, Item{Reading: sc.Reading()}) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			send(ctx, out, Item{Err: err})
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- Item, item Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}
