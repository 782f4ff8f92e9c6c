package dedup

import (
	"testing"
	"time"
)

func TestShouldProcess(t *testing.T) {
	d := New(time.Minute, 10)

	if !d.ShouldProcess("a") {
		t.Fatal("first sight must process")
	}
	if d.ShouldProcess("a") {
		t.Fatal("redelivery inside TTL must be dropped")
	}
	if !d.ShouldProcess("b") {
		t.Fatal("distinct id must process")
	}
	if !d.ShouldProcess("") {
		t.Fatal("empty id is always processed")
	}
}

func TestExpiredIDProcessesAgain(t *testing.T) {
	d := New(10*time.Millisecond, 10)
	if !d.ShouldProcess("a") {
		t.Fatal("first sight")
	}
	time.Sleep(20 * time.Millisecond)
	if !d.ShouldProcess("a") {
		t.Fatal("expired id must process again")
	}
}

func TestBoundedWhileAllLive(t *testing.T) {
	// Long TTL so nothing expires: the map must still stay at max by
	// evicting the entries closest to expiry.
	d := New(time.Hour, 5)
	for i := 0; i < 50; i++ {
		d.ShouldProcess(string(rune('a' + i)))
	}
	if got := d.Len(); got > 5 {
		t.Fatalf("deduper grew past its bound: %d tracked", got)
	}
	// The newest id was inserted last and must have survived eviction.
	if d.ShouldProcess(string(rune('a' + 49))) {
		t.Fatal("most recent id was evicted")
	}
}
