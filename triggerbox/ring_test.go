package triggerbox

import (
	"context"
	"testing"
)

func TestRingQueuePop(t *testing.T) {
	q := NewRingQueue[int](8)
	q.Write([]int{1, 2, 3})

	v, ok := q.Pop()
	if !ok || v != 1 {
		t.Fatalf("want (1, true), got (%v, %v)", v, ok)
	}
	if want, got := 2, q.ReadSpace(); want != got {
		t.Errorf("wrong read space: want %v, got %v", want, got)
	}
}

func TestRingQueueFullDropsExcess(t *testing.T) {
	q := NewRingQueue[int](4)
	n := q.Write([]int{1, 2, 3, 4, 5})
	if want, got := 4, n; want != got {
		t.Errorf("want %v written, got %v", want, got)
	}
	if want, got := 0, q.Write([]int{6}); want != got {
		t.Errorf("queue should be full: want %v written, got %v", want, got)
	}
}

func TestRingQueueReadVectorWraps(t *testing.T) {
	q := NewRingQueue[int](4)
	q.Write([]int{1, 2, 3})
	q.Read(make([]int, 2)) // consume 1, 2 so write wraps past the end
	q.Write([]int{4, 5})

	first, second := q.ReadVector()
	got := append(append([]int{}, first...), second...)
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestRingQueueConcurrentSPSC(t *testing.T) {
	q := NewRingQueue[int](8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	var got []int
	go func() {
		for {
			select {
			case <-ctx.Done():
				for v, ok := q.Pop(); ok; v, ok = q.Pop() {
					got = append(got, v)
				}
				done <- struct{}{}
				return
			default:
				for v, ok := q.Pop(); ok; v, ok = q.Pop() {
					got = append(got, v)
				}
			}
		}
	}()

	const numItems = 100_000
	for n := 0; n < numItems; n++ {
		for q.Write([]int{n}) == 0 {
		}
	}
	cancel()
	<-done

	if len(got) != numItems {
		t.Fatalf("wrong number of items: want %v, got %v", numItems, len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("discontinuous item at %v: want %v, got %v", i, i, v)
		}
	}
}
