package liquidacion

import (
	"fmt"
	"strings"

	"liquidaciones-service/internal/domain"
)

const tarifaScanRows = 5

// Rótulos de tarifa sobre la máquina consolidada.
const (
	tarifaFijaLabel    = "Tarifa fija (valores sumados)"
	tipoTarifaFija     = "Tarifa fija"
	tipoTarifaVariable = "Tarifa variable"
	tarifaDefaultLabel = "Cálculo original (sin ajuste)"
)

// ParseTarifas lee la hoja de tarifas oficiales y devuelve las entradas de
// tarifa fija por NUC. Solo se retienen filas cuya celda de tipo es
// exactamente "Tarifa fija" (comparación sensible a mayúsculas: ese literal
// es el único disparador) y con derechos o gastos positivos. Devuelve un
// error que envuelve ErrTarifasParse cuando no hay encabezados o columnas
// NUC/Tarifa; el llamador degrada a no-op y sigue con la fórmula por defecto.
func ParseTarifas(data domain.Grid) (map[string]domain.TarifaOficial, error) {
	headerRow := -1
	limit := tarifaScanRows
	if len(data) < limit {
		limit = len(data)
	}
	for i := 0; i < limit; i++ {
		for _, cell := range data[i] {
			if s, ok := cell.(string); ok {
				lower := strings.ToLower(s)
				if strings.Contains(lower, "nuc") || strings.Contains(lower, "tarifa") {
					headerRow = i
					break
				}
			}
		}
		if headerRow != -1 {
			break
		}
	}
	if headerRow == -1 {
		return nil, fmt.Errorf("%w: no se encontraron encabezados válidos", ErrTarifasParse)
	}

	headers := data[headerRow]
	buscar := func(clave string) int {
		for i, h := range headers {
			if strings.Contains(celdaLower(h), clave) {
				return i
			}
		}
		return -1
	}
	nucIndex := buscar("nuc")
	tarifaIndex := buscar("tarifa")
	derechosIndex := buscar("derechos")
	gastosIndex := buscar("gastos")

	if nucIndex == -1 || tarifaIndex == -1 {
		return nil, fmt.Errorf("%w: no se encontraron columnas NUC o Tarifa", ErrTarifasParse)
	}

	tarifas := make(map[string]domain.TarifaOficial)
	for _, row := range data[headerRow+1:] {
		if row == nil {
			continue
		}
		nucRaw := CeldaString(celdaEn(row, nucIndex))
		tipoRaw := CeldaString(celdaEn(row, tarifaIndex))
		if nucRaw == "" || tipoRaw == "" {
			continue
		}
		if tipoRaw != tipoTarifaFija {
			continue
		}

		derechos := CeldaFloat(celdaEn(row, derechosIndex))
		gastos := CeldaFloat(celdaEn(row, gastosIndex))
		if derechos > 0 || gastos > 0 {
			tarifas[nucRaw] = domain.TarifaOficial{
				DerechosAdicionales: derechos,
				GastosAdicionales:   gastos,
			}
		}
	}
	return tarifas, nil
}

// AplicarTarifas suma (no reemplaza) los montos de tarifa fija sobre los
// valores de fórmula por defecto de cada máquina cuyo NUC tenga entrada, y
// recalcula TotalImpuestos. Las demás quedan como tarifa variable. Modifica
// el slice en sitio y devuelve cuántas máquinas recibieron ajuste.
//
// No es idempotente: una segunda pasada sobre datos ya ajustados vuelve a
// sumar. El llamador la aplica a lo sumo una vez por consolidación.
func AplicarTarifas(consolidated []domain.MaquinaConsolidada, tarifas map[string]domain.TarifaOficial) int {
	if len(tarifas) == 0 {
		return 0
	}

	aplicadas := 0
	for i := range consolidated {
		m := &consolidated[i]
		nuc := strings.TrimSpace(m.Nuc)
		info, ok := tarifas[nuc]
		if !ok {
			if m.Tarifa == "" {
				m.Tarifa = tarifaDefaultLabel
			}
			if m.TipoTarifa == "" {
				m.TipoTarifa = tipoTarifaVariable
			}
			continue
		}

		m.DerechosExplotacion += info.DerechosAdicionales
		m.GastosAdministracion += info.GastosAdicionales
		m.TotalImpuestos = m.DerechosExplotacion + m.GastosAdministracion
		m.Tarifa = tarifaFijaLabel
		m.TipoTarifa = tipoTarifaFija
		aplicadas++
	}
	return aplicadas
}
