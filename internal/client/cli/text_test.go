package cli

import (
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.Equal(t, "'alice'", Highlight.Sprint("alice"))
	assert.Equal(t, "(3 notes)", Muted.Sprintf("%d notes", 3))
	assert.Equal(t, "done", Success.Sprint("done"))
	assert.Equal(t, "Work", VaultName("Work", "nope"))
}

func TestVaultPaletteCoversModelColors(t *testing.T) {
	for _, c := range models.Colors {
		_, ok := vaultPalette[c]
		assert.True(t, ok, c)
	}
}
