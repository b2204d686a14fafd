package rollout

import (
	"strconv"
	"testing"
)

func TestBucket_Deterministic(t *testing.T) {
	callerID := "caller-123"
	flagKey := "new_checkout"
	salt := "test-salt"

	first := Bucket(callerID, flagKey, salt)
	second := Bucket(callerID, flagKey, salt)

	if first != second {
		t.Errorf("Bucket is not deterministic: got %d and %d", first, second)
	}
	if first < 0 || first >= 100 {
		t.Errorf("Bucket out of range: %d", first)
	}
}

func TestBucket_EmptyCaller(t *testing.T) {
	if got := Bucket("", "new_checkout", "salt"); got != -1 {
		t.Errorf("expected -1 for empty callerID, got %d", got)
	}
}

func TestBucket_Distribution(t *testing.T) {
	flagKey := "new_checkout"
	salt := "test-salt"
	counts := make([]int, 100)

	for i := 0; i < 10000; i++ {
		counts[Bucket("caller-"+strconv.Itoa(i), flagKey, salt)]++
	}

	// Each bucket should hold roughly 100 of 10000 callers; allow wide slack.
	for bucket, count := range counts {
		if count < 50 || count > 150 {
			t.Errorf("bucket %d holds %d callers, expected ~100", bucket, count)
		}
	}
}

func TestBucket_IndependentAcrossFlags(t *testing.T) {
	salt := "test-salt"
	same := 0
	for i := 0; i < 1000; i++ {
		callerID := "caller-" + strconv.Itoa(i)
		if Bucket(callerID, "flag_a", salt) == Bucket(callerID, "flag_b", salt) {
			same++
		}
	}
	// ~1% collision expected for independent hashes; 10% means correlation.
	if same > 100 {
		t.Errorf("buckets correlate across flags: %d/1000 identical", same)
	}
}

func TestInRollout_Boundaries(t *testing.T) {
	salt := "test-salt"

	for i := 0; i < 1000; i++ {
		callerID := "caller-" + strconv.Itoa(i)

		in, err := InRollout(callerID, "flag", 0, salt)
		if err != nil {
			t.Fatalf("InRollout: %v", err)
		}
		if in {
			t.Fatalf("caller %s included at 0%%", callerID)
		}

		in, err = InRollout(callerID, "flag", 100, salt)
		if err != nil {
			t.Fatalf("InRollout: %v", err)
		}
		if !in {
			t.Fatalf("caller %s excluded at 100%%", callerID)
		}
	}
}

func TestInRollout_InvalidPercentage(t *testing.T) {
	for _, percent := range []float64{-1, 100.1, 200} {
		if _, err := InRollout("caller", "flag", percent, "salt"); err == nil {
			t.Errorf("expected error for percent %v", percent)
		}
	}
}

func TestInRollout_Monotonic(t *testing.T) {
	// A caller included at p must stay included at every higher p.
	salt := "test-salt"
	for i := 0; i < 200; i++ {
		callerID := "caller-" + strconv.Itoa(i)
		wasIn := false
		for p := 0.0; p <= 100; p += 10 {
			in, err := InRollout(callerID, "flag", p, salt)
			if err != nil {
				t.Fatalf("InRollout: %v", err)
			}
			if wasIn && !in {
				t.Fatalf("caller %s dropped out when rollout grew to %v", callerID, p)
			}
			wasIn = in
		}
	}
}

func TestInRollout_Fraction(t *testing.T) {
	salt := "test-salt"
	included := 0
	for i := 0; i < 10000; i++ {
		in, err := InRollout("caller-"+strconv.Itoa(i), "flag", 30, salt)
		if err != nil {
			t.Fatalf("InRollout: %v", err)
		}
		if in {
			included++
		}
	}

	// 30% of 10000 with ±3 percentage point tolerance.
	if included < 2700 || included > 3300 {
		t.Errorf("expected ~3000 of 10000 included at 30%%, got %d", included)
	}
}
