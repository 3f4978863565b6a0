package liquidacion

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"liquidaciones-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ahoraTest = time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)

func TestExtraerPeriodoInfo(t *testing.T) {
	t.Run("período de los datos, no de la fecha de procesamiento", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{
			{PeriodoTexto: "Junio 2025", UltimoDia: "30/06/2025"},
			{PeriodoTexto: "Junio 2025", UltimoDia: "30/06/2025"},
		}
		fechas := ExtraerPeriodoInfo(consolidated, ahoraTest)
		assert.Equal(t, "junio_2025", fechas.PeriodoLiquidacion)
		assert.Equal(t, "junio", fechas.MesLiquidacion)
		assert.Equal(t, 2025, fechas.AnioLiquidacion)
		assert.Equal(t, "2025-07-15", fechas.FechaProcesamiento)
		assert.Equal(t, ahoraTest.UnixMilli(), fechas.TimestampProcesamiento)
	})

	t.Run("formato numérico MM/YYYY", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{{PeriodoTexto: "06/2025"}}
		fechas := ExtraerPeriodoInfo(consolidated, ahoraTest)
		assert.Equal(t, "junio", fechas.MesLiquidacion)
		assert.Equal(t, 2025, fechas.AnioLiquidacion)
	})

	t.Run("mes sin año usa el año actual", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{{PeriodoTexto: "Marzo"}}
		fechas := ExtraerPeriodoInfo(consolidated, ahoraTest)
		assert.Equal(t, "marzo", fechas.MesLiquidacion)
		assert.Equal(t, 2025, fechas.AnioLiquidacion)
	})

	t.Run("sin período cae al último día de la primera máquina", func(t *testing.T) {
		consolidated := []domain.MaquinaConsolidada{{UltimoDia: "28/02/2025"}}
		fechas := ExtraerPeriodoInfo(consolidated, ahoraTest)
		assert.Equal(t, "febrero", fechas.MesLiquidacion)
	})

	t.Run("sin datos usa el mes actual", func(t *testing.T) {
		fechas := ExtraerPeriodoInfo(nil, ahoraTest)
		assert.Equal(t, "julio_2025", fechas.PeriodoLiquidacion)
	})
}

func TestGenerateLiquidacionID(t *testing.T) {
	id := GenerateLiquidacionID("Acme Games S.A.S.", "junio_2025", "user1", ahoraTest)
	esperado := fmt.Sprintf("acme_games_s_a_s__junio_2025_user1_%d", ahoraTest.UnixMilli())
	assert.Equal(t, esperado, id)
}

func resultadoBase() *domain.ResultadoLiquidacion {
	consolidated := []domain.MaquinaConsolidada{
		maquina("NUC001", "Casino Central", 1_000_000),
		maquina("NUC002", "Casino Norte", 500_000),
	}
	reporte := GenerarReporteSala(consolidated)
	return &domain.ResultadoLiquidacion{
		Empresa:          "Acme Games",
		Consolidated:     consolidated,
		ReporteSala:      reporte,
		Metrics:          CalcularMetricasBasicas(consolidated, reporte),
		PeriodoDetectado: "Enero 2025",
	}
}

func TestBuildLiquidacionDoc(t *testing.T) {
	archivo := &domain.ArchivoInfo{Nombre: "liquidacion_enero.xlsx", Tamano: 1024}

	t.Run("solo archivo principal", func(t *testing.T) {
		doc := BuildLiquidacionDoc(BuildDocInput{
			Resultado:       resultadoBase(),
			UserID:          "user1",
			ArchivoOriginal: archivo,
			Ahora:           ahoraTest,
		})

		assert.True(t, strings.HasPrefix(doc.ID, "acme_games_enero_2025_user1_"))
		assert.Equal(t, "Acme Games", doc.Empresa.Nombre)
		assert.Equal(t, "acme_games", doc.Empresa.Normalizado)
		assert.Equal(t, "enero_2025", doc.Fechas.PeriodoLiquidacion)
		assert.Equal(t, 1, doc.Archivos.TotalArchivos)
		assert.Equal(t, []string{"liquidacion"}, doc.Archivos.TiposProcesados)
		assert.False(t, doc.Procesamiento.FueCorregidoConTarifas)
		assert.Equal(t, "solo_archivo_principal", doc.Procesamiento.TipoLiquidacion)
		assert.Equal(t, "2.0", doc.Procesamiento.VersionProcesamiento)
		assert.Equal(t, "2025_01", doc.Metadatos.AnioMes)
		assert.Equal(t, "user1_acme_games", doc.Metadatos.UsuarioEmpresa)
		assert.Contains(t, doc.Metadatos.Tags, "sin_tarifas")
		assert.Len(t, doc.DatosConsolidados, 2)
	})

	t.Run("con archivo de tarifas", func(t *testing.T) {
		doc := BuildLiquidacionDoc(BuildDocInput{
			Resultado:       resultadoBase(),
			UserID:          "user1",
			ArchivoOriginal: archivo,
			ArchivoTarifas:  &domain.ArchivoInfo{Nombre: "tarifas.xlsx"},
			Ahora:           ahoraTest,
		})

		assert.Equal(t, 2, doc.Archivos.TotalArchivos)
		assert.Equal(t, []string{"liquidacion", "tarifas"}, doc.Archivos.TiposProcesados)
		assert.True(t, doc.Procesamiento.FueCorregidoConTarifas)
		assert.Equal(t, "con_tarifas_corregidas", doc.Procesamiento.TipoLiquidacion)
		assert.Contains(t, doc.Metadatos.Tags, "con_tarifas")
	})
}

type edicionStoreMem struct {
	docs map[string]*domain.EdicionDoc
}

func nuevoEdicionStoreMem() *edicionStoreMem {
	return &edicionStoreMem{docs: make(map[string]*domain.EdicionDoc)}
}

func (s *edicionStoreMem) EdicionPorOriginal(originalID string) (*domain.EdicionDoc, error) {
	return s.docs[originalID], nil
}

func (s *edicionStoreMem) GuardarEdicion(doc *domain.EdicionDoc) error {
	s.docs[doc.LiquidacionOriginalID] = doc
	return nil
}

func docOriginal(t *testing.T) *domain.LiquidacionDoc {
	t.Helper()
	return BuildLiquidacionDoc(BuildDocInput{
		Resultado:       resultadoBase(),
		UserID:          "user1",
		ArchivoOriginal: &domain.ArchivoInfo{Nombre: "liquidacion.xlsx"},
		Ahora:           ahoraTest,
	})
}

func TestUpsertEdicion(t *testing.T) {
	store := nuevoEdicionStoreMem()
	original := docOriginal(t)
	serialEditado := original.DatosConsolidados[0].Serial

	editada := original.DatosConsolidados[0]
	editada.DerechosExplotacion = 200_000
	editada.GastosAdministracion = 2_000
	editada.TotalImpuestos = 999 // lo que mande el cliente se ignora, se recalcula

	doc, err := UpsertEdicion(store, original, domain.EdicionInput{
		Maquinas: []domain.MaquinaConsolidada{editada},
		Usuario:  "auditor1",
		Motivo:   "corrección de derechos",
	}, ahoraTest)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, original.ID, doc.LiquidacionOriginalID)
	assert.True(t, doc.EsEdicion)

	// el original no se toca
	assert.InDelta(t, 120_000, original.DatosConsolidados[0].DerechosExplotacion, 0.001)

	require.Len(t, doc.HistorialEdiciones, 1)
	evento := doc.HistorialEdiciones[0]
	assert.Equal(t, "auditor1", evento.Usuario)
	require.Len(t, evento.Cambios, 1)
	assert.Equal(t, serialEditado, evento.Cambios[0].Serial)
	assert.InDelta(t, 120_000, evento.Cambios[0].Antes.DerechosExplotacion, 0.001)
	assert.InDelta(t, 200_000, evento.Cambios[0].Despues.DerechosExplotacion, 0.001)

	// TotalImpuestos recalculado, no el que vino en la petición
	assert.InDelta(t, 202_000, doc.DatosConsolidados[0].TotalImpuestos, 0.001)

	// la máquina no editada conserva sus valores
	assert.Equal(t, original.DatosConsolidados[1], doc.DatosConsolidados[1])

	// métricas recalculadas sobre el consolidado fusionado
	assert.InDelta(t, 200_000+original.DatosConsolidados[1].DerechosExplotacion, doc.Metricas.TotalDerechos, 0.001)
}

func TestUpsertEdicionFusionaEnUnSoloDocumento(t *testing.T) {
	store := nuevoEdicionStoreMem()
	original := docOriginal(t)

	primera := original.DatosConsolidados[0]
	primera.DerechosExplotacion = 200_000
	doc1, err := UpsertEdicion(store, original, domain.EdicionInput{
		Maquinas: []domain.MaquinaConsolidada{primera},
		Usuario:  "auditor1",
		Motivo:   "primera corrección",
	}, ahoraTest)
	require.NoError(t, err)

	segunda := original.DatosConsolidados[1]
	segunda.GastosAdministracion = 9_000
	doc2, err := UpsertEdicion(store, original, domain.EdicionInput{
		Maquinas: []domain.MaquinaConsolidada{segunda},
		Usuario:  "auditor2",
		Motivo:   "segunda corrección",
	}, ahoraTest.Add(time.Hour))
	require.NoError(t, err)

	// mismo documento enlazado, historial acumulado
	assert.Equal(t, doc1.ID, doc2.ID)
	require.Len(t, doc2.HistorialEdiciones, 2)
	assert.Equal(t, "auditor1", doc2.HistorialEdiciones[0].Usuario)
	assert.Equal(t, "auditor2", doc2.HistorialEdiciones[1].Usuario)

	// ambas ediciones conviven en el consolidado
	assert.InDelta(t, 200_000, doc2.DatosConsolidados[0].DerechosExplotacion, 0.001)
	assert.InDelta(t, 9_000, doc2.DatosConsolidados[1].GastosAdministracion, 0.001)

	require.Len(t, store.docs, 1)
}

func TestUpsertEdicionSinMaquinas(t *testing.T) {
	store := nuevoEdicionStoreMem()
	_, err := UpsertEdicion(store, docOriginal(t), domain.EdicionInput{Usuario: "auditor1"}, ahoraTest)
	require.Error(t, err)
}
