package lottery

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// codeAlphabet is the 36-symbol alphabet ticket codes draw from. The suffix
// length of 5 gives ~60M combinations per round; collisions are rare and are
// checked against the store before insert, so math/rand is sufficient here.
const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLength = 5
	codeInfix        = "LOT-"
)

// AttemptBudget is the total number of candidate codes issuance may generate
// for a batch of the given quantity before giving up.
func AttemptBudget(quantity int) int {
	return quantity * 10
}

// GenerateCode produces one candidate ticket code for the round, e.g.
// "1LOT-7K2QZ". Codes are not guaranteed unique; the caller checks them
// against previously stored codes.
func GenerateCode(round int) string {
	buf := make([]byte, codeSuffixLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return fmt.Sprintf("%d%s%s", round, codeInfix, buf)
}

// CodePattern returns the regexp every code of the round must match.
func CodePattern(round int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%d%s[A-Z0-9]{%d}$`, round, regexp.QuoteMeta(codeInfix), codeSuffixLength))
}

// NewOrderID returns a process-unique, client-visible order identifier.
// Nanosecond timestamps are collision-free in practice for a single process.
func NewOrderID(now time.Time) string {
	return "ORD" + strconv.FormatInt(now.UnixNano(), 10)
}
