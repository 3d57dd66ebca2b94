package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjects_NamesAndTags(t *testing.T) {
	objects, err := ParseObjects("animals.dco", "Sparrow\nA\nwings\n%%\nFish\n")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "Sparrow", objects[0].Name)
	assert.Equal(t, map[string]struct{}{"A": {}, "wings": {}}, objects[0].Conditions)
	assert.Equal(t, "Fish", objects[1].Name)
	assert.Empty(t, objects[1].Conditions)
}

func TestParseObjects_CommentsReservedAndDuplicates(t *testing.T) {
	text := "; header comment\n\nRobin\nfeathers\n!scales\nfeathers\n; trailing\n"
	objects, err := ParseObjects("o", text)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, "Robin", objects[0].Name)
	assert.True(t, objects[0].Has("feathers"))
	assert.False(t, objects[0].Has("!scales"))
	assert.False(t, objects[0].Has("scales"))
	assert.Len(t, objects[0].Conditions, 1)
}

func TestParseObjects_OrderPreserved(t *testing.T) {
	objects, err := ParseObjects("o", "C\n%%\nA\n%%\nB\n")
	require.NoError(t, err)

	var names []string
	for _, o := range objects {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)
}

func TestParseObjects_MissingName(t *testing.T) {
	testCases := []struct {
		name string
		text string
		line int
	}{
		{"Empty text", "", 1},
		{"Trailing delimiter", "Sparrow\n%%", 2},
		{"Only comments", "; nothing\n; here\n", 3},
		{"Empty middle block", "A\n%%\n\n%%\nB\n", 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseObjects("objects.dco", tc.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingName)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, "objects.dco", fe.File)
			assert.Equal(t, tc.line, fe.Line)
		})
	}
}

func TestParseObjects_FirstLineNamesObject(t *testing.T) {
	// the first substantive line names the object even if it starts with "!"
	objects, err := ParseObjects("o", "!odd\ntag\n")
	require.NoError(t, err)
	assert.Equal(t, "!odd", objects[0].Name)
	assert.True(t, objects[0].Has("tag"))
}
