package dbclient

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Seconds between the Unix epoch and 2000-01-01, the Postgres epoch.
const pgEpochOffset = 946684800

func registerDefaultWireTypes(d *Decoder) {
	ts := WireType{Width: 8, Bytes: decodeTimestamp, Time: FormatTimestamp, Text: textOf("-:. T+")}
	d.Register("TIMESTAMP", ts)
	d.Register("TIMESTAMPTZ", ts)
	d.Register("DATETIME", WireType{Time: FormatTimestamp})
	d.Register("DATE", WireType{Width: 4, Bytes: decodeDate, Time: FormatDate, Text: textOf("-")})
	clock := WireType{Width: 8, Bytes: decodeTimeOfDay, Time: formatClock, Text: textOf(":.+-")}
	d.Register("TIME", clock)
	clock.Width = 12
	d.Register("TIMETZ", clock)
	d.Register("UUID", WireType{Width: 16, Bytes: decodeUUID, Text: textOf("-")})
	d.Register("MONEY", WireType{Width: 8, Bytes: decodeMoney, Text: textOf("$-.,() ")})
}

// textOf accepts byte strings made only of digits and the given
// punctuation, with at least one digit. Binary values of the same width
// almost always contain a byte outside that set.
func textOf(punct string) func([]byte) bool {
	return func(b []byte) bool {
		digits := 0
		for _, c := range b {
			switch {
			case c >= '0' && c <= '9':
				digits++
			case strings.IndexByte(punct, c) >= 0:
			default:
				return false
			}
		}
		return digits > 0
	}
}

// FormatTimestamp renders t in UTC as YYYY-MM-DD HH:MM:SS.
func FormatTimestamp(t time.Time) string {
	return formatUnix(t.Unix())
}

// FormatDate renders the UTC calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	y, m, d := civilFromDays(floorDiv(t.Unix(), 86400))
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func formatClock(t time.Time) string {
	return t.Format("15:04:05")
}

func formatUnix(secs int64) string {
	days := floorDiv(secs, 86400)
	rem := secs - days*86400
	y, m, d := civilFromDays(days)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", y, m, d, rem/3600, rem%3600/60, rem%60)
}

func decodeTimestamp(b []byte) string {
	micros := int64(binary.BigEndian.Uint64(b))
	return formatUnix(floorDiv(micros, 1_000_000) + pgEpochOffset)
}

func decodeDate(b []byte) string {
	days := int64(int32(binary.BigEndian.Uint32(b)))
	y, m, d := civilFromDays(days + pgEpochOffset/86400)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func decodeTimeOfDay(b []byte) string {
	secs := int64(binary.BigEndian.Uint64(b[:8])) / 1_000_000
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

func decodeUUID(b []byte) string {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return ""
	}
	return id.String()
}

func decodeMoney(b []byte) string {
	cents := int64(binary.BigEndian.Uint64(b))
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = uint64(-(cents + 1)) + 1
	}
	return fmt.Sprintf("$%s%d.%02d", sign, abs/100, abs%100)
}

// civilFromDays converts days since 1970-01-01 to a proleptic Gregorian
// date (Howard Hinnant's algorithm).
func civilFromDays(days int64) (year int64, month, day int) {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	year = yoe + era*400
	if m <= 2 {
		year++
	}
	return year, int(m), int(d)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
