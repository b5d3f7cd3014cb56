package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeframe converts "M1", "M15", "H1", "H4", "D1" into a bar duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	tf = strings.ToUpper(strings.TrimSpace(tf))
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[1:])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch tf[0] {
	case 'M':
		return time.Duration(n) * time.Minute, nil
	case 'H':
		return time.Duration(n) * time.Hour, nil
	case 'D':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
}

// TimeframeString is the inverse of ParseTimeframe.
func TimeframeString(d time.Duration) (string, error) {
	sec := int64(d / time.Second)
	if sec <= 0 || sec%60 != 0 {
		return "", fmt.Errorf("invalid timeframe duration: %s", d)
	}
	switch {
	case sec < 3600:
		return fmt.Sprintf("M%d", sec/60), nil
	case sec < 86400 && sec%3600 == 0:
		return fmt.Sprintf("H%d", sec/3600), nil
	case sec%86400 == 0:
		return fmt.Sprintf("D%d", sec/86400), nil
	}
	return "", fmt.Errorf("unsupported timeframe duration: %s", d)
}
