package helper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	NoTime = "---"
)

var (
	ErrNegativeMilliseconds = errors.New("milliseconds must be a non-negative integer")
	ErrMalformedLapTime     = errors.New("lap time must be formatted as MM:SS.mmm")
)

// method to convert from milliseconds to minutes:seconds.milliseconds
func MillisecondsToLapTime(ms int) (string, error) {
	if ms < 0 {
		return "", errors.Wrapf(ErrNegativeMilliseconds, "got %d", ms)
	}
	totalSeconds, millis := ms/1000, ms%1000
	minutes, seconds := totalSeconds/60, totalSeconds%60
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis), nil
}

// LapTimeToMilliseconds is the inverse of MillisecondsToLapTime.
func LapTimeToMilliseconds(lapTime string) (int, error) {
	minutesPart, rest, found := strings.Cut(lapTime, ":")
	if !found {
		return 0, errors.Wrapf(ErrMalformedLapTime, "%q", lapTime)
	}
	secondsPart, millisPart, found := strings.Cut(rest, ".")
	if !found || len(minutesPart) < 2 || len(secondsPart) != 2 || len(millisPart) != 3 {
		return 0, errors.Wrapf(ErrMalformedLapTime, "%q", lapTime)
	}

	minutes, err := parseDigits(minutesPart)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedLapTime, "%q", lapTime)
	}
	seconds, err := parseDigits(secondsPart)
	if err != nil || seconds > 59 {
		return 0, errors.Wrapf(ErrMalformedLapTime, "%q", lapTime)
	}
	millis, err := parseDigits(millisPart)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedLapTime, "%q", lapTime)
	}
	return (minutes*60+seconds)*1000 + millis, nil
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("unexpected character %q", r)
		}
	}
	return strconv.Atoi(s)
}

// signed seconds with 3 decimals. zero is rendered as a positive gap
func MillisecondsToDelta(ms int) string {
	sign := ""
	if ms >= 0 {
		sign = "+"
	}
	return sign + fmt.Sprintf("%.3f", float64(ms)/1000)
}

func ToPercentage(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func GetDriverCodeName(name string) string {
	// first letter of the name and the first 2 letters of the surname
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	code := string(words[0][0])
	if len(words) > 1 {
		if len(words[1]) > 2 {
			code += words[1][:2]
		} else {
			code += words[1]
		}
	} else {
		if len(words[0]) > 2 {
			code += words[0][1:3]
		} else {
			code += words[0]
		}
	}
	return strings.ToUpper(code)
}
