package usecase_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge/attachment-service/internal/usecase"
)

func TestNameGenerator_Generate(t *testing.T) {
	generator := usecase.NewNameGenerator()

	name, err := generator.Generate("png")

	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	token := strings.TrimSuffix(name, ".png")
	assert.Len(t, token, 26)
	for _, r := range token {
		assert.Contains(t, "0123456789abcdefghijklmnopqrstuvwxyz", string(r))
	}
}

func TestNameGenerator_GenerateWithoutExtension(t *testing.T) {
	generator := usecase.NewNameGenerator()

	name, err := generator.Generate("")

	assert.NoError(t, err)
	assert.Len(t, name, 26)
	assert.NotContains(t, name, ".")
}

func TestNameGenerator_IndependentOfInput(t *testing.T) {
	generator := usecase.NewNameGenerator()

	first, err := generator.Generate("pdf")
	assert.NoError(t, err)
	second, err := generator.Generate("pdf")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNameGenerator_InjectedSource(t *testing.T) {
	generator := usecase.NewNameGeneratorWithSource(func(alphabet string, size int) (string, error) {
		assert.Equal(t, 26, size)
		return strings.Repeat("a", size), nil
	})

	name, err := generator.Generate("txt")

	assert.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 26)+".txt", name)
}

func TestNameGenerator_SourceFailure(t *testing.T) {
	sourceErr := errors.New("entropy exhausted")
	generator := usecase.NewNameGeneratorWithSource(func(string, int) (string, error) {
		return "", sourceErr
	})

	_, err := generator.Generate("txt")

	assert.Error(t, err)
	assert.ErrorIs(t, err, sourceErr)
}
