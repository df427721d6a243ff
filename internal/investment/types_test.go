package investment

import (
	"errors"
	"testing"
	"time"
)

func TestParsePlan(test *testing.T) {
	test.Parallel()
	for _, raw := range []string{"flexi", "fixed_3m", "fixed_6m", "fixed_1y"} {
		if _, err := ParsePlan(raw); err != nil {
			test.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParsePlan("fixed_2y"); !errors.Is(err, ErrInvalidPlan) {
		test.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestPlanMaturityMonths(test *testing.T) {
	test.Parallel()
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC).Unix()
	cases := map[Plan]time.Time{
		PlanFixed3M: time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
		PlanFixed6M: time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC),
		PlanFixed1Y: time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	for plan, expected := range cases {
		if got := plan.MaturityUnixUTC(start); got != expected.Unix() {
			test.Fatalf("%s: expected %d, got %d", plan, expected.Unix(), got)
		}
	}
	if PlanFlexi.MaturityUnixUTC(start) != 0 {
		test.Fatalf("flexi has no maturity")
	}
}
