package liquidacion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"liquidaciones-service/internal/domain"
)

const (
	tasaDerechos = 0.12 // derechos de explotación sobre producción
	tasaGastos   = 0.01 // gastos de administración sobre derechos
)

var mesesES = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// excelSerialADate convierte un serial de Excel (época 1900) a fecha UTC:
// (serial - 25569) días desde la época Unix.
func excelSerialADate(serial float64) time.Time {
	ms := int64((serial - 25569) * 86400 * 1000)
	return time.UnixMilli(ms).UTC()
}

var layoutsFecha = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// parseFecha interpreta la celda de fecha. Fallback documentado: ok=false
// (fecha nula) cuando la celda no es parseable; los montos usan 0, las
// fechas usan nulo.
func parseFecha(c domain.Celda) (time.Time, bool) {
	switch v := c.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		return excelSerialADate(v), true
	case int:
		return excelSerialADate(float64(v)), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range layoutsFecha {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		// celda numérica leída como texto: tratar como serial de Excel
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return excelSerialADate(f), true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// formatearFechaSinTimezone arma dd/mm/yyyy con componentes UTC para que el
// día no se corra por zona horaria.
func formatearFechaSinTimezone(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), t.Year())
}

// calcularDiasMes devuelve los días calendario del mes de la fecha; 31 como
// fallback cuando no hay fecha válida.
func calcularDiasMes(t time.Time) int {
	if t.IsZero() {
		return 31
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// convertirFechaAPeriodo devuelve "Mes Año" en español a partir de la fecha.
func convertirFechaAPeriodo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	return fmt.Sprintf("%s %d", mesesES[int(t.Month())-1], t.Year())
}

// determinarNovedad clasifica según días transmitidos vs días del mes.
// Ambas ramas (menos días y más días) colapsan en el mismo rótulo; se dejan
// separadas para que la distinción siga siendo visible.
func determinarNovedad(diasTransmitidos, diasMes int) string {
	if diasTransmitidos == diasMes {
		return "Sin cambios"
	}
	if diasTransmitidos < diasMes {
		return "Retiro / Adición"
	}
	return "Retiro / Adición"
}

type grupoMaquina struct {
	nuc             string
	serial          string
	establecimiento string
	tipoApuesta     string
	produccion      float64
	dias            int
	fechas          []time.Time
}

// ConsolidarDatos agrupa las transmisiones por (nuc, establecimiento), suma
// producción, cuenta días y calcula los campos de impuestos con la fórmula
// por defecto. El orden de salida es el de primera aparición de cada grupo.
// La producción puede ser negativa y se representa tal cual; el filtrado de
// máquinas en cero es un paso opt-in aparte (ver reporte.go).
func ConsolidarDatos(filas []domain.FilaBase, empresa string) []domain.MaquinaConsolidada {
	grupos := make(map[string]*grupoMaquina)
	var orden []string

	for _, fila := range filas {
		key := strings.TrimSpace(fila.Nuc) + "_" + strings.TrimSpace(fila.Establecimiento)
		g, ok := grupos[key]
		if !ok {
			g = &grupoMaquina{
				nuc:             fila.Nuc,
				serial:          fila.Serial,
				establecimiento: fila.Establecimiento,
				tipoApuesta:     fila.TipoApuesta,
			}
			grupos[key] = g
			orden = append(orden, key)
		}

		g.produccion += CeldaFloat(fila.BaseLiquidacion)
		g.dias++

		if fecha, ok := parseFecha(fila.Fecha); ok {
			g.fechas = append(g.fechas, fecha)
		}
	}

	consolidated := make([]domain.MaquinaConsolidada, 0, len(orden))
	for _, key := range orden {
		g := grupos[key]

		var fechaInicio, fechaFin time.Time
		for _, f := range g.fechas {
			if fechaInicio.IsZero() || f.Before(fechaInicio) {
				fechaInicio = f
			}
			if fechaFin.IsZero() || f.After(fechaFin) {
				fechaFin = f
			}
		}

		diasMes := calcularDiasMes(fechaFin)
		derechos := g.produccion * tasaDerechos
		gastos := derechos * tasaGastos

		consolidated = append(consolidated, domain.MaquinaConsolidada{
			Empresa:              empresa,
			Serial:               g.serial,
			Nuc:                  g.nuc,
			Establecimiento:      g.establecimiento,
			DiasTransmitidos:     g.dias,
			DiasMes:              diasMes,
			PrimerDia:            formatearFechaSinTimezone(fechaInicio),
			UltimoDia:            formatearFechaSinTimezone(fechaFin),
			PeriodoTexto:         convertirFechaAPeriodo(fechaFin),
			TipoApuesta:          g.tipoApuesta,
			Produccion:           g.produccion,
			DerechosExplotacion:  derechos,
			GastosAdministracion: gastos,
			TotalImpuestos:       derechos + gastos,
			Novedad:              determinarNovedad(g.dias, diasMes),
		})
	}
	return consolidated
}
