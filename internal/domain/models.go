// package domain/models.go
package domain

import "time"

// Celda es el valor crudo de una celda de la hoja: string, float64 o nil.
// Los lectores de Excel entregan strings formateados; la coerción numérica
// acepta ambos (ver liquidacion.CeldaFloat / liquidacion.CeldaString).
type Celda any

// Grid es la hoja completa en la forma de sheet_to_json(header:1):
// lista ordenada de filas, cada fila una lista ordenada de celdas.
type Grid [][]Celda

// --- Modelos del archivo base de liquidación ---

// FilaBase representa una transmisión diaria de máquina ya proyectada a
// campos canónicos. Se descarta después de consolidar.
type FilaBase struct {
	Nuc             string `json:"nuc"`
	Serial          string `json:"serial"`
	Establecimiento string `json:"establecimiento"`
	TipoApuesta     string `json:"tipoApuesta"`
	Fecha           Celda  `json:"fecha"` // fecha parseable o serial Excel; nil si ausente
	Contrato        string `json:"contrato"`
	CodLocal        string `json:"codLocal"`
	CodigoMarca     string `json:"codigoMarca"`
	BaseLiquidacion Celda  `json:"baseLiquidacion"` // coerción permisiva, 0 si no parseable
}

// MaquinaConsolidada es una fila por par (nuc, establecimiento).
// TotalImpuestos se recalcula siempre como Derechos + Gastos.
type MaquinaConsolidada struct {
	Empresa              string  `json:"empresa"`
	Serial               string  `json:"serial"`
	Nuc                  string  `json:"nuc"`
	Establecimiento      string  `json:"establecimiento"`
	DiasTransmitidos     int     `json:"diasTransmitidos"`
	DiasMes              int     `json:"diasMes"`
	PrimerDia            string  `json:"primerDia"`
	UltimoDia            string  `json:"ultimoDia"`
	PeriodoTexto         string  `json:"periodoTexto"`
	TipoApuesta          string  `json:"tipoApuesta"`
	Produccion           float64 `json:"produccion"`
	DerechosExplotacion  float64 `json:"derechosExplotacion"`
	GastosAdministracion float64 `json:"gastosAdministracion"`
	TotalImpuestos       float64 `json:"totalImpuestos"`
	Novedad              string  `json:"novedad"`
	Tarifa               string  `json:"tarifa,omitempty"`
	TipoTarifa           string  `json:"tipoTarifa,omitempty"`
}

// ResumenSala es el reporte agregado por establecimiento.
type ResumenSala struct {
	Establecimiento         string  `json:"establecimiento"`
	Empresa                 string  `json:"empresa"`
	TotalMaquinas           int     `json:"totalMaquinas"`
	Produccion              float64 `json:"produccion"`
	DerechosExplotacion     float64 `json:"derechosExplotacion"`
	GastosAdministracion    float64 `json:"gastosAdministracion"`
	TotalImpuestos          float64 `json:"totalImpuestos"`
	PromedioEstablecimiento float64 `json:"promedioEstablecimiento"`
}

// TarifaOficial es la entrada del archivo de tarifas para un NUC con
// "Tarifa fija": montos ADICIONALES al cálculo porcentual por defecto.
type TarifaOficial struct {
	DerechosAdicionales float64 `json:"derechosAdicionales"`
	GastosAdicionales   float64 `json:"gastosAdicionales"`
}

// Empresa es una entrada del registro de empresas (snapshot externo).
type Empresa struct {
	Name           string `json:"name"`
	ContractNumber string `json:"contractNumber"`
	NIT            string `json:"nit"`
	LogoURL        string `json:"logoURL,omitempty"`
}

// Metricas son los totales que alimenta el dashboard.
type Metricas struct {
	TotalMaquinas         int     `json:"totalMaquinas"`
	TotalEstablecimientos int     `json:"totalEstablecimientos"`
	TotalProduccion       float64 `json:"totalProduccion"`
	TotalDerechos         float64 `json:"totalDerechos"`
	TotalGastos           float64 `json:"totalGastos"`
	TotalImpuestos        float64 `json:"totalImpuestos"`
}

// ResultadoLiquidacion es la salida completa de una corrida del pipeline.
type ResultadoLiquidacion struct {
	Empresa          string                   `json:"empresa"`
	EmpresaCompleta  *Empresa                 `json:"empresaCompleta,omitempty"`
	NumeroContrato   string                   `json:"numeroContrato,omitempty"`
	Consolidated     []MaquinaConsolidada     `json:"consolidated"`
	ReporteSala      []ResumenSala            `json:"reporteSala"`
	Metrics          Metricas                 `json:"metrics"`
	PeriodoDetectado string                   `json:"periodoDetectado"`
	TarifasOficiales map[string]TarifaOficial `json:"tarifasOficiales,omitempty"`
	TarifasAplicadas int                      `json:"tarifasAplicadas"`
	HeaderRow        int                      `json:"headerRow"`
	HeaderFallback   bool                     `json:"headerFallback"`
	Warnings         []string                 `json:"warnings,omitempty"`
}

// --- Modelos del documento persistido ---

// ArchivoInfo referencia un archivo original en el storage externo.
type ArchivoInfo struct {
	URL           string `json:"url"`
	Nombre        string `json:"nombre"`
	NombreStorage string `json:"nombreStorage"`
	Tamano        int64  `json:"tamaño"`
	Tipo          string `json:"tipo"`
	FechaSubida   string `json:"fechaSubida"`
}

// EmpresaDoc es el bloque de empresa dentro del documento.
type EmpresaDoc struct {
	Nombre      string `json:"nombre"`
	Normalizado string `json:"normalizado"`
}

// FechasDoc separa el período liquidado de la fecha de procesamiento.
// Son distintos a propósito: en julio se procesa la liquidación de junio.
type FechasDoc struct {
	PeriodoLiquidacion     string `json:"periodoLiquidacion"` // ej: "junio_2025"
	MesLiquidacion         string `json:"mesLiquidacion"`
	AnioLiquidacion        int    `json:"añoLiquidacion"`
	FechaProcesamiento     string `json:"fechaProcesamiento"` // YYYY-MM-DD
	TimestampProcesamiento int64  `json:"timestampProcesamiento"`
}

// ArchivosDoc agrupa las referencias de storage del documento.
type ArchivosDoc struct {
	ArchivoOriginal *ArchivoInfo `json:"archivoOriginal"`
	ArchivoTarifas  *ArchivoInfo `json:"archivoTarifas,omitempty"`
	TotalArchivos   int          `json:"totalArchivos"`
	TiposProcesados []string     `json:"tiposProcesados"`
}

// ProcesamientoDoc marca cómo se generó el documento.
type ProcesamientoDoc struct {
	FueCorregidoConTarifas bool   `json:"fueCorregidoConTarifas"`
	RequiereProcesamiento  bool   `json:"requiereProcesamiento"`
	VersionProcesamiento   string `json:"versionProcesamiento"`
	TipoLiquidacion        string `json:"tipoLiquidacion"`
	Validado               bool   `json:"validado"`
	FechaValidacion        string `json:"fechaValidacion"`
}

// MetadatosDoc facilita búsquedas y filtros sobre documentos guardados.
type MetadatosDoc struct {
	EmpresaNormalizada string   `json:"empresaNormalizada"`
	AnioMes            string   `json:"añoMes"` // ej: "2025_06"
	UsuarioEmpresa     string   `json:"usuarioEmpresa"`
	Tags               []string `json:"tags"`
}

// LiquidacionDoc es el documento persistido de una liquidación. Se crea una
// vez por corrida exitosa; las ediciones posteriores generan un documento
// enlazado aparte (EdicionDoc), nunca mutan el original.
type LiquidacionDoc struct {
	ID                string               `json:"id"`
	UserID            string               `json:"userId"`
	Empresa           EmpresaDoc           `json:"empresa"`
	Fechas            FechasDoc            `json:"fechas"`
	Archivos          ArchivosDoc          `json:"archivos"`
	Metricas          Metricas             `json:"metricas"`
	DatosConsolidados []MaquinaConsolidada `json:"datosConsolidados"`
	Procesamiento     ProcesamientoDoc     `json:"procesamiento"`
	Metadatos         MetadatosDoc         `json:"metadatos"`
}

// --- Modelos de edición (auditoría) ---

// CambioMaquina es el snapshot antes/después de una máquina editada,
// identificada por serial.
type CambioMaquina struct {
	Serial  string             `json:"serial"`
	Antes   MaquinaConsolidada `json:"valoresAnteriores"`
	Despues MaquinaConsolidada `json:"valoresNuevos"`
}

// EventoEdicion es una entrada del historial append-only de ediciones.
type EventoEdicion struct {
	Fecha   time.Time       `json:"fecha"`
	Usuario string          `json:"usuario"`
	Motivo  string          `json:"motivo"`
	Cambios []CambioMaquina `json:"cambios"`
}

// EdicionDoc es el único documento de edición enlazado a una liquidación
// original. La primera edición lo crea; las siguientes se fusionan en él.
type EdicionDoc struct {
	ID                    string               `json:"id"`
	LiquidacionOriginalID string               `json:"liquidacionOriginalId"`
	EsEdicion             bool                 `json:"esEdicion"`
	Metricas              Metricas             `json:"metricas"`
	DatosConsolidados     []MaquinaConsolidada `json:"datosConsolidados"`
	HistorialEdiciones    []EventoEdicion      `json:"historialEdiciones"`
}

// EdicionInput es la entrada del upsert de edición.
type EdicionInput struct {
	LiquidacionOriginalID string               `json:"liquidacionOriginalId"`
	Maquinas              []MaquinaConsolidada `json:"maquinasEditadas"`
	Motivo                string               `json:"motivo"`
	Usuario               string               `json:"usuario"`
}
