package keys

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretAndWalletKey_AreUUIDv4(t *testing.T) {
	for _, k := range []string{NewSecretKey(), NewWalletKey()} {
		id, err := uuid.Parse(k)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), id.Version())
	}
	assert.NotEqual(t, NewSecretKey(), NewSecretKey())
}

func TestNewReferralCode_Shape(t *testing.T) {
	re := regexp.MustCompile(`^ali(\d{1,4})$`)
	for i := 0; i < 200; i++ {
		code := NewReferralCode("Alice")
		m := re.FindStringSubmatch(code)
		require.NotNil(t, m, "unexpected code %q", code)

		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, MaxReferralSuffix)
	}
}

func TestNewReferralCode_Bounds(t *testing.T) {
	orig := intN
	defer func() { intN = orig }()

	var gotN int
	intN = func(n int) int { gotN = n; return n - 1 }

	assert.Equal(t, "bo9999", NewReferralCode("Bo"))
	assert.Equal(t, MaxReferralSuffix+1, gotN)

	intN = func(int) int { return 0 }
	assert.Equal(t, "жан0", NewReferralCode("Жанна"))
	assert.True(t, strings.HasPrefix(NewReferralCode("  Carol "), "car"))
}
