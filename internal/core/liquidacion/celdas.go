package liquidacion

import (
	"fmt"
	"strconv"
	"strings"

	"liquidaciones-service/internal/domain"
)

// CeldaString devuelve la celda como string recortado; "" para nil.
func CeldaString(c domain.Celda) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// CeldaFloat coerciona la celda a número. Fallback documentado: 0 cuando la
// celda está vacía o no es parseable (montos), nunca error.
func CeldaFloat(c domain.Celda) float64 {
	f, _ := celdaFloatOk(c)
	return f
}

func celdaFloatOk(c domain.Celda) (float64, bool) {
	switch v := c.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		// formato 1.234.567,89: si la coma va después del último punto,
		// los puntos son miles y la coma es decimal
		lastDot := strings.LastIndex(s, ".")
		lastComma := strings.LastIndex(s, ",")
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// celdaVacia reporta si la celda cuenta como vacía para la validación
// estructural (nil o string en blanco).
func celdaVacia(c domain.Celda) bool {
	switch v := c.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func filaVacia(row []domain.Celda) bool {
	for _, c := range row {
		if !celdaVacia(c) {
			return false
		}
	}
	return true
}

// celdaLower es la forma que usan las heurísticas de encabezado: lower-case
// y trim. No quita tildes: las palabras clave distinguen "liquidacion" de
// "liquidación" a propósito.
func celdaLower(c domain.Celda) string {
	return strings.ToLower(CeldaString(c))
}
