package liquidacion

import (
	"testing"

	"liquidaciones-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maquina(nuc, sala string, produccion float64) domain.MaquinaConsolidada {
	derechos := produccion * tasaDerechos
	gastos := derechos * tasaGastos
	return domain.MaquinaConsolidada{
		Empresa:              "Acme Games",
		Nuc:                  nuc,
		Serial:               "SER-" + nuc,
		Establecimiento:      sala,
		Produccion:           produccion,
		DerechosExplotacion:  derechos,
		GastosAdministracion: gastos,
		TotalImpuestos:       derechos + gastos,
		PeriodoTexto:         "Enero 2025",
	}
}

func TestGenerarReporteSala(t *testing.T) {
	consolidated := []domain.MaquinaConsolidada{
		maquina("001", "Casino Central", 100_000),
		maquina("002", "Casino Central", 300_000),
		maquina("003", "Casino Norte", 900_000),
	}

	reporte := GenerarReporteSala(consolidated)
	require.Len(t, reporte, 2)

	// ordenado por producción descendente
	assert.Equal(t, "Casino Norte", reporte[0].Establecimiento)
	assert.Equal(t, 1, reporte[0].TotalMaquinas)

	central := reporte[1]
	assert.Equal(t, "Casino Central", central.Establecimiento)
	assert.Equal(t, 2, central.TotalMaquinas)
	assert.InDelta(t, 400_000, central.Produccion, 0.001)
	assert.InDelta(t, 200_000, central.PromedioEstablecimiento, 0.001)

	// la suma por salas conserva los totales de las máquinas
	var totalSalas, totalMaquinas float64
	for _, s := range reporte {
		totalSalas += s.Produccion
	}
	for _, m := range consolidated {
		totalMaquinas += m.Produccion
	}
	assert.InDelta(t, totalMaquinas, totalSalas, 0.001)
}

func TestCalcularMetricasBasicas(t *testing.T) {
	consolidated := []domain.MaquinaConsolidada{
		maquina("001", "Casino Central", 1_000_000),
		maquina("002", "Casino Norte", 500_000),
	}
	reporte := GenerarReporteSala(consolidated)

	m := CalcularMetricasBasicas(consolidated, reporte)
	assert.Equal(t, 2, m.TotalMaquinas)
	assert.Equal(t, 2, m.TotalEstablecimientos)
	assert.InDelta(t, 1_500_000, m.TotalProduccion, 0.001)
	assert.InDelta(t, 180_000, m.TotalDerechos, 0.001)
	assert.InDelta(t, 1_800, m.TotalGastos, 0.001)
	assert.InDelta(t, 181_800, m.TotalImpuestos, 0.001)
}

func TestDetectarPeriodoLiquidacion(t *testing.T) {
	t.Run("mayoría simple", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{
			{PeriodoTexto: "Enero 2025"},
			{PeriodoTexto: "Enero 2025"},
			{PeriodoTexto: "Febrero 2025"},
		}
		assert.Equal(t, "Enero 2025", DetectarPeriodoLiquidacion(consolidated))
	})

	t.Run("empate lo gana la primera aparición", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{
			{PeriodoTexto: "Febrero 2025"},
			{PeriodoTexto: "Enero 2025"},
		}
		assert.Equal(t, "Febrero 2025", DetectarPeriodoLiquidacion(consolidated))
	})

	t.Run("sin períodos", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{{PeriodoTexto: ""}}
		assert.Equal(t, "No detectado", DetectarPeriodoLiquidacion(consolidated))
		assert.Equal(t, "No detectado", DetectarPeriodoLiquidacion(nil))
	})
}

func TestFiltrosProduccionCero(t *testing.T) {
	consolidated := []domain.MaquinaConsolidada{
		maquina("001", "Casino Central", 100_000),
		maquina("002", "Casino Central", 0),
		maquina("003", "Casino Central", 0.005), // bajo el umbral
		maquina("004", "Casino Central", -200),
	}

	enCero := MaquinasEnCero(consolidated)
	require.Len(t, enCero, 2)
	assert.Equal(t, "002", enCero[0].Nuc)
	assert.Equal(t, "003", enCero[1].Nuc)

	conProduccion := MaquinasConProduccion(consolidated)
	require.Len(t, conProduccion, 2)
	assert.Equal(t, "001", conProduccion[0].Nuc)
	assert.Equal(t, "004", conProduccion[1].Nuc)

	assert.Len(t, enCero, len(consolidated)-len(conProduccion))
}
