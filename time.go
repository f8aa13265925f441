package pathwise

import "time"

// IsOutsideThresholdPeriod reports whether more than the given period has
// elapsed since t. The period uses time.ParseDuration syntax, e.g. "24h".
func IsOutsideThresholdPeriod(t time.Time, period string) (bool, error) {
	d, err := time.ParseDuration(period)
	if err != nil {
		return false, err
	}
	return time.Since(t) > d, nil
}
