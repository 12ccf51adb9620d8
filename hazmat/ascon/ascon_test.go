package ascon //nolint:testpackage // testing internals

import (
	"testing"
)

func TestPermuteKnownAnswers(t *testing.T) {
	for _, kat := range []struct {
		rounds int
		want   [5]uint64
	}{
		{12, [5]uint64{0x78ea7ae5cfebb108, 0x9b9bfb8513b560f7, 0x6937f83e03d11a50, 0x3fe53f36f2c1178c, 0x045d648e4def12c9}},
		{8, [5]uint64{0x1418f8af721aa830, 0xa5425f1f8cb31388, 0xa01ef761bf8e1652, 0xf01fdabf8c8a82b4, 0x0168260badf76a06}},
		{6, [5]uint64{0x160c84f20faad4f1, 0x21495b1b0ae33eef, 0xe0377d04e23a914b, 0x2b23481598ffa8ea, 0x649af379ba83cd30}},
	} {
		var s [5]uint64
		Permute(&s, kat.rounds)
		if s != kat.want {
			t.Errorf("Permute(0*5, %d) = %x, want = %x", kat.rounds, s, kat.want)
		}
	}
}

func TestPermuteAliases(t *testing.T) {
	for _, v := range []struct {
		name   string
		alias  func(*[5]uint64)
		rounds int
	}{
		{"P12", P12, 12},
		{"P8", P8, 8},
		{"P6", P6, 6},
	} {
		var a, b [5]uint64
		a[0], b[0] = 0xdeadbeefcafebabe, 0xdeadbeefcafebabe
		v.alias(&a)
		Permute(&b, v.rounds)
		if a != b {
			t.Errorf("%s diverges from Permute(_, %d)", v.name, v.rounds)
		}
	}
}

func TestPermuteRoundSuffixDistinct(t *testing.T) {
	out := map[int][5]uint64{}
	for _, rounds := range []int{6, 8, 12} {
		var s [5]uint64
		Permute(&s, rounds)
		out[rounds] = s
	}
	if out[6] == out[8] || out[6] == out[12] || out[8] == out[12] {
		t.Errorf("reduced-round outputs are not pairwise distinct: %x", out)
	}
}

func TestPermuteRoundCountPanics(t *testing.T) {
	for _, rounds := range []int{-1, 0, 13, 24} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Permute(_, %d) did not panic", rounds)
				}
			}()
			var s [5]uint64
			Permute(&s, rounds)
		}()
	}
}
