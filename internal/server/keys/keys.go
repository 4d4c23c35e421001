// Package keys generates the random identifiers attached to new accounts.
package keys

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxReferralSuffix bounds the numeric part of a referral code.
const MaxReferralSuffix = 9999

// intN is a seam for tests.
var intN = rand.IntN

func NewSecretKey() string {
	return uuid.NewString()
}

func NewWalletKey() string {
	return uuid.NewString()
}

// NewReferralCode returns the first three lower-cased runes of userName
// followed by a random integer in [0, MaxReferralSuffix].
func NewReferralCode(userName string) string {
	prefix := strings.ToLower(strings.TrimSpace(userName))
	if utf8.RuneCountInString(prefix) > 3 {
		prefix = string([]rune(prefix)[:3])
	}
	return prefix + strconv.Itoa(intN(MaxReferralSuffix+1))
}
