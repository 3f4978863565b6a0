package liquidacion

import (
	"math"
	"sort"

	"liquidaciones-service/internal/domain"
)

// GenerarReporteSala reagrupa las máquinas consolidadas por establecimiento
// con totales y promedio por máquina, ordenado por producción descendente.
// El orden importa: la selección top-N aguas abajo depende de él.
func GenerarReporteSala(consolidated []domain.MaquinaConsolidada) []domain.ResumenSala {
	grupos := make(map[string]*domain.ResumenSala)
	var orden []string

	for _, item := range consolidated {
		g, ok := grupos[item.Establecimiento]
		if !ok {
			g = &domain.ResumenSala{
				Establecimiento: item.Establecimiento,
				Empresa:         item.Empresa,
			}
			grupos[item.Establecimiento] = g
			orden = append(orden, item.Establecimiento)
		}
		g.TotalMaquinas++
		g.Produccion += item.Produccion
		g.DerechosExplotacion += item.DerechosExplotacion
		g.GastosAdministracion += item.GastosAdministracion
		g.TotalImpuestos += item.TotalImpuestos
	}

	reporte := make([]domain.ResumenSala, 0, len(orden))
	for _, key := range orden {
		g := grupos[key]
		if g.TotalMaquinas > 0 {
			g.PromedioEstablecimiento = g.Produccion / float64(g.TotalMaquinas)
		}
		reporte = append(reporte, *g)
	}

	sort.SliceStable(reporte, func(i, j int) bool {
		return reporte[i].Produccion > reporte[j].Produccion
	})
	return reporte
}

// CalcularMetricasBasicas arma los totales del dashboard a partir del
// consolidado y el reporte por sala.
func CalcularMetricasBasicas(consolidated []domain.MaquinaConsolidada, reporteSala []domain.ResumenSala) domain.Metricas {
	var totalProduccion, totalDerechos, totalGastos float64
	for _, item := range consolidated {
		totalProduccion += item.Produccion
		totalDerechos += item.DerechosExplotacion
		totalGastos += item.GastosAdministracion
	}
	return domain.Metricas{
		TotalMaquinas:         len(consolidated),
		TotalEstablecimientos: len(reporteSala),
		TotalProduccion:       totalProduccion,
		TotalDerechos:         totalDerechos,
		TotalGastos:           totalGastos,
		TotalImpuestos:        totalDerechos + totalGastos,
	}
}

const periodoNoDetectado = "No detectado"

// DetectarPeriodoLiquidacion vota por mayoría sobre el periodoTexto de las
// máquinas consolidadas. Empates se resuelven por orden de primera
// aparición; sin períodos devuelve "No detectado".
func DetectarPeriodoLiquidacion(consolidated []domain.MaquinaConsolidada) string {
	counts := make(map[string]int)
	var orden []string
	for _, item := range consolidated {
		p := item.PeriodoTexto
		if p == "" {
			continue
		}
		if _, ok := counts[p]; !ok {
			orden = append(orden, p)
		}
		counts[p]++
	}
	if len(orden) == 0 {
		return periodoNoDetectado
	}

	best := orden[0]
	bestCount := counts[best]
	for _, p := range orden[1:] {
		if counts[p] > bestCount {
			best = p
			bestCount = counts[p]
		}
	}
	return best
}

const umbralProduccionCero = 0.01

// MaquinasEnCero filtra las máquinas con producción efectivamente nula
// (|producción| < 0.01). Paso opcional de post-procesamiento; la
// consolidación nunca lo aplica por sí sola.
func MaquinasEnCero(consolidated []domain.MaquinaConsolidada) []domain.MaquinaConsolidada {
	var out []domain.MaquinaConsolidada
	for _, m := range consolidated {
		if math.Abs(m.Produccion) < umbralProduccionCero {
			out = append(out, m)
		}
	}
	return out
}

// MaquinasConProduccion es el complemento de MaquinasEnCero.
func MaquinasConProduccion(consolidated []domain.MaquinaConsolidada) []domain.MaquinaConsolidada {
	var out []domain.MaquinaConsolidada
	for _, m := range consolidated {
		if math.Abs(m.Produccion) >= umbralProduccionCero {
			out = append(out, m)
		}
	}
	return out
}
