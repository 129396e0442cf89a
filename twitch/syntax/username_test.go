package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsernamesValid(t *testing.T) {
	assert := assert.New(t)

	valid := []string{
		"a",
		"forsen",
		"Day9tv",
		"the_best_streamer",
		"n0tch",
		"x123456789012345678901234",
	}
	for _, raw := range valid {
		_, err := ParseUsername(raw)
		assert.NoError(err, "expected valid username: %s", raw)
	}
}

func TestUsernamesInvalid(t *testing.T) {
	assert := assert.New(t)

	invalid := []string{
		"",
		"_leading",
		"has space",
		"dotted.name",
		"name!",
		"x1234567890123456789012345",
		"söme",
	}
	for _, raw := range invalid {
		_, err := ParseUsername(raw)
		assert.Error(err, "expected invalid username: %s", raw)
	}
}

func TestUsernameNormalize(t *testing.T) {
	assert := assert.New(t)

	name, err := ParseUsername("StreamerBob")
	assert.NoError(err)
	assert.Equal(Username("streamerbob"), name.Normalize())
	assert.Equal("StreamerBob", name.String())
}

func TestUserID(t *testing.T) {
	assert := assert.New(t)

	id, err := ParseUserID("23161357")
	assert.NoError(err)
	assert.Equal("23161357", id.String())

	_, err = ParseUserID("")
	assert.Error(err)
	_, err = ParseUserID("has space")
	assert.Error(err)
	_, err = ParseUserID("snowman☃")
	assert.Error(err)
}
