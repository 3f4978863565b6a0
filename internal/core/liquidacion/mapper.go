package liquidacion

import (
	"strings"

	"liquidaciones-service/internal/domain"
)

// ColumnMap ubica cada campo canónico en su índice de columna (-1 = ausente).
type ColumnMap struct {
	Nuc             int
	Serial          int
	Establecimiento int
	TipoApuesta     int
	Fecha           int
	Contrato        int
	CodLocal        int
	CodigoMarca     int
	BaseLiquidacion int
}

func nuevaColumnMap() ColumnMap {
	return ColumnMap{
		Nuc: -1, Serial: -1, Establecimiento: -1, TipoApuesta: -1,
		Fecha: -1, Contrato: -1, CodLocal: -1, CodigoMarca: -1, BaseLiquidacion: -1,
	}
}

// MapearColumnas recorre los encabezados y asigna índices con una lista de
// reglas ordenada donde gana la primera coincidencia. Las reglas de "sala" y
// "categoria" van al final a propósito: solo capturan columnas que ninguna
// regla anterior reclamó.
func MapearColumnas(headers []domain.Celda) ColumnMap {
	cm := nuevaColumnMap()

	for index, header := range headers {
		h := celdaLower(header)
		switch {
		case strings.Contains(h, "nuc"):
			cm.Nuc = index
		case strings.Contains(h, "serial"):
			cm.Serial = index
		case strings.Contains(h, "establecimiento"):
			cm.Establecimiento = index
		case strings.Contains(h, "tipo") && strings.Contains(h, "apuesta"):
			cm.TipoApuesta = index
		case strings.Contains(h, "fecha") && strings.Contains(h, "reporte"):
			cm.Fecha = index
		case strings.Contains(h, "contrato"):
			cm.Contrato = index
		case strings.Contains(h, "cod") && strings.Contains(h, "local"):
			cm.CodLocal = index
		case strings.Contains(h, "código") && strings.Contains(h, "marca"):
			cm.CodigoMarca = index
		case esColumnaBase(h):
			cm.BaseLiquidacion = index
		case strings.Contains(h, "sala") || strings.Contains(h, "casino"):
			cm.Establecimiento = index
		case strings.Contains(h, "categoria") || strings.Contains(h, "tipo"):
			cm.TipoApuesta = index
		}
	}
	return cm
}

func esColumnaBase(h string) bool {
	if strings.Contains(h, "base") && (strings.Contains(h, "liquidación") || strings.Contains(h, "liquidacion")) {
		return true
	}
	if h == "base liquidación diaria" || h == "base liquidacion diaria" {
		return true
	}
	return strings.Contains(h, "produccion") ||
		strings.Contains(h, "ingresos") ||
		strings.Contains(h, "valor") ||
		strings.Contains(h, "monto")
}

// ColumnasFaltantes reporta los campos esenciales sin mapear. No es fatal:
// la consolidación continúa con ceros/vacíos para esos campos.
func (cm ColumnMap) ColumnasFaltantes() []string {
	var faltantes []string
	if cm.Nuc == -1 {
		faltantes = append(faltantes, "nuc")
	}
	if cm.BaseLiquidacion == -1 {
		faltantes = append(faltantes, "baseLiquidacion")
	}
	return faltantes
}

func celdaEn(row []domain.Celda, idx int) domain.Celda {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// ProyectarFilas convierte las filas de datos (debajo del encabezado) en
// FilaBase usando el mapa de columnas. Las filas sin NUC se descartan.
func ProyectarFilas(data domain.Grid, headerRow int, cm ColumnMap) []domain.FilaBase {
	if headerRow+1 >= len(data) {
		return nil
	}

	var filas []domain.FilaBase
	for _, row := range data[headerRow+1:] {
		if row == nil {
			continue
		}
		fila := domain.FilaBase{
			Nuc:             CeldaString(celdaEn(row, cm.Nuc)),
			Serial:          CeldaString(celdaEn(row, cm.Serial)),
			Establecimiento: CeldaString(celdaEn(row, cm.Establecimiento)),
			TipoApuesta:     CeldaString(celdaEn(row, cm.TipoApuesta)),
			Fecha:           celdaEn(row, cm.Fecha),
			Contrato:        CeldaString(celdaEn(row, cm.Contrato)),
			CodLocal:        CeldaString(celdaEn(row, cm.CodLocal)),
			CodigoMarca:     CeldaString(celdaEn(row, cm.CodigoMarca)),
			BaseLiquidacion: celdaEn(row, cm.BaseLiquidacion),
		}
		if fila.Nuc == "" {
			continue
		}
		filas = append(filas, fila)
	}
	return filas
}
