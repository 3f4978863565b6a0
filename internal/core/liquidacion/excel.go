package liquidacion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"liquidaciones-service/internal/domain"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CargarGrid lee el archivo subido y lo convierte a la grilla cruda que
// consume el pipeline. Despacha por extensión; los .xls que en realidad son
// .xlsx renombrados se reintentan con excelize.
func CargarGrid(file io.Reader, filename string) (domain.Grid, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return cargarXLSX(file)
	case ".xls":
		return cargarXLS(file)
	case ".csv":
		return cargarCSV(file)
	default:
		return nil, fmt.Errorf("%w: extensión no soportada %q", ErrArchivoInvalido, filepath.Ext(filename))
	}
}

func filasAGrid(rows [][]string) domain.Grid {
	grid := make(domain.Grid, 0, len(rows))
	for _, row := range rows {
		celdas := make([]domain.Celda, 0, len(row))
		for _, cell := range row {
			if cell == "" {
				celdas = append(celdas, nil)
			} else {
				celdas = append(celdas, cell)
			}
		}
		grid = append(grid, celdas)
	}
	return grid
}

func cargarXLSX(file io.Reader) (domain.Grid, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: libro sin hojas", ErrArchivoInvalido)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}
	return filasAGrid(rows), nil
}

func cargarXLS(file io.Reader) (domain.Grid, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// quizás sea un xlsx con extensión .xls; reintentar con excelize
		if _, errX := excelize.OpenReader(bytes.NewReader(data)); errX == nil {
			return cargarXLSX(bytes.NewReader(data))
		}
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}

	sheets := workbook.GetSheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: libro sin hojas", ErrArchivoInvalido)
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}

	var rows [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}
	return filasAGrid(rows), nil
}

func cargarCSV(file io.Reader) (domain.Grid, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	// los exportes viejos vienen en latin-1; si ya es utf-8 el decoder lo
	// deja pasar para el rango ASCII que usan los encabezados
	if !bytes.Contains(data, []byte{0xC3}) {
		decoded, _, errD := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
		if errD == nil {
			data = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectarSeparador(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchivoInvalido, err)
	}
	return filasAGrid(records), nil
}

func detectarSeparador(data []byte) rune {
	muestra := data
	if len(muestra) > 4096 {
		muestra = muestra[:4096]
	}
	if bytes.Count(muestra, []byte{';'}) > bytes.Count(muestra, []byte{','}) {
		return ';'
	}
	return ','
}
