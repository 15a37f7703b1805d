package service

import "testing"

func TestIDAllocator(t *testing.T) {
	var a IDAllocator
	if got := a.Current(); got != "0000000000" {
		t.Errorf("fresh allocator current = %s", got)
	}
	if got := a.Next(); got != "0000000001" {
		t.Errorf("first id = %s", got)
	}
	if got := a.Next(); got != "0000000002" {
		t.Errorf("second id = %s", got)
	}

	a.Reset(41)
	if got := a.Next(); got != "0000000042" {
		t.Errorf("id after reset = %s", got)
	}
	if got := a.Current(); got != "0000000042" {
		t.Errorf("current after issue = %s", got)
	}
}
