package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSearch(t *testing.T) {
	require.Equal(t, "arbol", NormalizeSearch("Árbol"))
	require.Equal(t, "nunez", NormalizeSearch("  NÚÑEZ "))
	require.Equal(t, "cafe con leche", NormalizeSearch("Café con Leche"))
	require.Equal(t, "sku-001", NormalizeSearch("SKU-001"))
	require.Equal(t, "", NormalizeSearch(""))
}
