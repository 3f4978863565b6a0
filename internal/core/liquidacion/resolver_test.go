package liquidacion

import (
	"testing"

	"liquidaciones-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registroEmpresas = []domain.Empresa{
	{Name: "Grupo Empresarial Azar S.A.S.", ContractNumber: "C-1077", NIT: "900.123.456-7"},
	{Name: "Inversiones La Fortuna Ltda", ContractNumber: "C-2088", NIT: "800654321-1"},
	{Name: "Casinos del Caribe S.A.", ContractNumber: "C-3099", NIT: "901.987.654-3"},
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "GRUPO EMPRESARIAL AZAR S A S", normalizeText("  grupo empresarial azar s.a.s. "))
	assert.Equal(t, "CAFE COLON", normalizeText("Café Colón"))
	assert.Equal(t, "", normalizeText("   "))
}

func TestBuscarEmpresaPorContrato(t *testing.T) {
	e := BuscarEmpresaPorContrato(registroEmpresas, " c-1077 ")
	require.NotNil(t, e)
	assert.Equal(t, "Grupo Empresarial Azar S.A.S.", e.Name)

	assert.Nil(t, BuscarEmpresaPorContrato(registroEmpresas, "C-9999"))
	assert.Nil(t, BuscarEmpresaPorContrato(registroEmpresas, ""))
}

func TestBuscarEmpresaPorNIT(t *testing.T) {
	t.Run("match exacto ignora separadores", func(t *testing.T) {
		e := BuscarEmpresaPorNIT(registroEmpresas, "900123456-7")
		require.NotNil(t, e)
		assert.Equal(t, "C-1077", e.ContractNumber)
	})

	t.Run("sin dígito de verificación", func(t *testing.T) {
		e := BuscarEmpresaPorNIT(registroEmpresas, "900123456")
		require.NotNil(t, e)
		assert.Equal(t, "C-1077", e.ContractNumber)
	})

	t.Run("sin match", func(t *testing.T) {
		assert.Nil(t, BuscarEmpresaPorNIT(registroEmpresas, "111222333"))
		assert.Nil(t, BuscarEmpresaPorNIT(registroEmpresas, ""))
	})
}

func TestBuscarEmpresaPorNombre(t *testing.T) {
	t.Run("exacto tras normalizar", func(t *testing.T) {
		e := BuscarEmpresaPorNombre(registroEmpresas, "grupo empresarial azar s.a.s.")
		require.NotNil(t, e)
		assert.Equal(t, "C-1077", e.ContractNumber)
	})

	t.Run("aproximado sin sufijo societario", func(t *testing.T) {
		e := BuscarEmpresaPorNombre(registroEmpresas, "Inversiones La Fortuna")
		require.NotNil(t, e)
		assert.Equal(t, "C-2088", e.ContractNumber)
	})

	t.Run("aproximado con puntuación distinta", func(t *testing.T) {
		// "SAS" sin puntos no normaliza igual que "S.A.S." ("S A S"),
		// así que tiene que resolver por n-gramas, no por el mapa exacto
		e := BuscarEmpresaPorNombre(registroEmpresas, "Grupo Empresarial Azar SAS")
		require.NotNil(t, e)
		assert.Equal(t, "C-1077", e.ContractNumber)
	})

	t.Run("aproximado en mayúsculas", func(t *testing.T) {
		e := BuscarEmpresaPorNombre(registroEmpresas, "INVERSIONES LA FORTUNA LTDA")
		require.NotNil(t, e)
		assert.Equal(t, "C-2088", e.ContractNumber)
	})

	t.Run("vacío", func(t *testing.T) {
		assert.Nil(t, BuscarEmpresaPorNombre(registroEmpresas, ""))
		assert.Nil(t, BuscarEmpresaPorNombre(nil, "Acme"))
	})
}

func TestNombreEmpresaFallback(t *testing.T) {
	assert.Equal(t, "Contrato C-1077 (No encontrado)", NombreEmpresaFallback("C-1077"))
	assert.Equal(t, "Empresa no detectada", NombreEmpresaFallback(""))
}
