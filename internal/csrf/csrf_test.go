package csrf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue(t *testing.T) {
	issuer := NewIssuer()

	t.Run("TokensAreRandom", func(t *testing.T) {
		first, err := issuer.Issue()
		require.NoError(t, err)
		second, err := issuer.Issue()
		require.NoError(t, err)

		assert.NotEmpty(t, first)
		assert.NotEqual(t, first, second)
	})

	t.Run("TokenIsCookieSafe", func(t *testing.T) {
		token, err := issuer.Issue()
		require.NoError(t, err)

		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
	})
}

func TestValidate(t *testing.T) {
	issuer := NewIssuer()

	t.Run("MatchingPairIsValid", func(t *testing.T) {
		token, err := issuer.Issue()
		require.NoError(t, err)

		assert.True(t, issuer.Validate(token, token))
	})

	t.Run("MismatchIsInvalid", func(t *testing.T) {
		first, err := issuer.Issue()
		require.NoError(t, err)
		second, err := issuer.Issue()
		require.NoError(t, err)

		assert.False(t, issuer.Validate(first, second))
	})

	t.Run("MissingEitherSideIsInvalid", func(t *testing.T) {
		token, err := issuer.Issue()
		require.NoError(t, err)

		assert.False(t, issuer.Validate("", token))
		assert.False(t, issuer.Validate(token, ""))
		assert.False(t, issuer.Validate("", ""))
	})
}
