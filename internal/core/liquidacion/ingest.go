package liquidacion

import (
	"fmt"
	"strings"

	"liquidaciones-service/internal/domain"
)

const headerScanRows = 15

// columnasClave es el set estricto de la primera pasada: una fila con 3 o
// más coincidencias es el encabezado.
var columnasClave = []string{"serial", "nuc", "nuid", "establecimiento", "sala", "base", "liquidacion", "produccion"}

// palabrasEncabezado es el set flexible de la segunda pasada (>= 4).
var palabrasEncabezado = []string{
	"serial", "nuc", "establecimiento", "contrato", "codigo", "tipo",
	"fecha", "base", "liquidacion", "produccion", "ingresos", "casino", "sala",
}

// EstadisticasGrid resume la validación estructural del archivo.
type EstadisticasGrid struct {
	TotalFilas     int `json:"totalRows"`
	FilasConDatos  int `json:"dataRows"`
	Columnas       int `json:"columns"`
	ColumnasVacias int `json:"emptyColumns"`
}

// ValidarGrid valida la integridad estructural de la hoja. Devuelve
// advertencias acumuladas (filas inconsistentes, columnas vacías) y un error
// que envuelve ErrArchivoInvalido cuando el archivo es inutilizable.
func ValidarGrid(data domain.Grid) (*EstadisticasGrid, []string, error) {
	var warnings []string

	if len(data) < 2 {
		return nil, nil, fmt.Errorf("%w: archivo sin datos suficientes (%d filas)", ErrArchivoInvalido, len(data))
	}
	if data[0] == nil {
		return nil, nil, fmt.Errorf("%w: primera fila inválida o ausente", ErrArchivoInvalido)
	}

	filasConDatos := 0
	for _, row := range data {
		if row != nil && !filaVacia(row) {
			filasConDatos++
		}
	}
	if filasConDatos < 2 {
		return nil, nil, fmt.Errorf("%w: el archivo no contiene filas con datos válidos", ErrArchivoInvalido)
	}

	columnasEsperadas := len(data[0])
	inconsistentes := 0
	for _, row := range data {
		if row != nil && len(row) != columnasEsperadas && !filaVacia(row) {
			inconsistentes++
		}
	}
	if float64(inconsistentes) > float64(len(data))*0.1 {
		warnings = append(warnings, fmt.Sprintf("%d filas tienen diferente número de columnas", inconsistentes))
	}

	columnasVacias := 0
	for col := 0; col < columnasEsperadas; col++ {
		tieneValor := false
		for _, row := range data {
			if col < len(row) && !celdaVacia(row[col]) {
				tieneValor = true
				break
			}
		}
		if !tieneValor {
			columnasVacias++
		}
	}
	if columnasVacias > 0 {
		warnings = append(warnings, fmt.Sprintf("%d columnas completamente vacías", columnasVacias))
	}

	return &EstadisticasGrid{
		TotalFilas:     len(data),
		FilasConDatos:  filasConDatos - 1,
		Columnas:       columnasEsperadas,
		ColumnasVacias: columnasVacias,
	}, warnings, nil
}

func coincidencias(row []domain.Celda, claves []string) int {
	n := 0
	for _, clave := range claves {
		for _, cell := range row {
			if strings.Contains(celdaLower(cell), clave) {
				n++
				break
			}
		}
	}
	return n
}

// DetectarFilaEncabezados busca la fila de encabezados en las primeras 15
// filas: primero con el set estricto (>=3 coincidencias), luego con el set
// flexible (>=4), luego la fila 0 contra el set flexible. El fallback final
// es la fila índice 1; fallback=true marca ese resultado como de baja
// confianza y el llamador debe exponerlo como advertencia.
func DetectarFilaEncabezados(data domain.Grid) (fila int, fallback bool) {
	limit := headerScanRows
	if len(data) < limit {
		limit = len(data)
	}

	for i := 0; i < limit; i++ {
		if data[i] == nil {
			continue
		}
		if coincidencias(data[i], columnasClave) >= 3 {
			return i, false
		}
	}

	for i := 0; i < limit; i++ {
		if data[i] == nil {
			continue
		}
		if coincidencias(data[i], palabrasEncabezado) >= 4 {
			return i, false
		}
	}

	if len(data) > 0 && data[0] != nil && coincidencias(data[0], palabrasEncabezado) >= 4 {
		return 0, false
	}

	return 1, true
}

// valoresIgnorados son celdas que parecen rótulos, no números de contrato.
var valoresIgnorados = []string{"contrato", "contract", "numero", "number", "código", "codigo"}

// DetectarNumeroContrato busca el número de contrato en la primera columna
// de las filas 1..14 y devuelve "" si no aparece.
func DetectarNumeroContrato(data domain.Grid) string {
	limit := headerScanRows
	if len(data) < limit {
		limit = len(data)
	}
	for i := 1; i < limit; i++ {
		row := data[i]
		if len(row) == 0 {
			continue
		}
		posible := CeldaString(row[0])
		if posible == "" {
			continue
		}
		lower := strings.ToLower(posible)
		esHeader := false
		for _, palabra := range valoresIgnorados {
			if lower == palabra || strings.HasPrefix(lower, palabra+" ") {
				esHeader = true
				break
			}
		}
		if esHeader {
			continue
		}
		return posible
	}
	return ""
}
