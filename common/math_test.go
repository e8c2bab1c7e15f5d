package common

import (
	"testing"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

func TestClamp(t *testing.T) {
	assertTrue(t, Clamp(2, 0, 1) == 1, "Higher than range error")
	assertTrue(t, Clamp(1, 0, 2) == 1, "Within range error")
	assertTrue(t, Clamp(0, 1, 2) == 1, "Lower than range error")
}

func TestNextPow2(t *testing.T) {
	cases := map[uint32]uint32{1: 1, 2: 2, 3: 4, 5: 8, 16: 16, 17: 32, 1000: 1024}
	for in, want := range cases {
		if got := NextPow2(in); got != want {
			t.Errorf("NextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestIlog2(t *testing.T) {
	cases := map[uint32]uint32{1: 0, 2: 1, 4: 2, 5: 2, 256: 8, 1 << 20: 20, 0xffffffff: 31}
	for in, want := range cases {
		if got := Ilog2(in); got != want {
			t.Errorf("Ilog2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAppendUnique(t *testing.T) {
	s := AppendUnique([]int{1, 2}, 2)
	assertTrue(t, len(s) == 2, "duplicate appended")
	s = AppendUnique(s, 3)
	assertTrue(t, len(s) == 3 && s[2] == 3, "new value not appended")
}

func TestComputeTileHashMasked(t *testing.T) {
	for x := int32(-4); x < 4; x++ {
		for y := int32(-4); y < 4; y++ {
			h := ComputeTileHash(x, y, 7)
			assertTrue(t, h >= 0 && h <= 7, "hash outside mask")
		}
	}
}
