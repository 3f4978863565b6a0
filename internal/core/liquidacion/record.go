package liquidacion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"liquidaciones-service/internal/domain"

	"github.com/google/uuid"
)

var mesesMinusculas = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func numeroMes(mes string) int {
	for i, m := range mesesMinusculas {
		if m == mes {
			return i + 1
		}
	}
	return 0
}

var (
	patronMesAnio  = regexp.MustCompile(`(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\s*(de\s*)?(\d{4})`)
	patronNumerico = regexp.MustCompile(`(\d{1,2})[/\-](\d{4})`)
	patronSoloMes  = regexp.MustCompile(`enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre`)
)

func parsePeriodoTexto(valor string, ahora time.Time) (string, int, bool) {
	valor = strings.ToLower(valor)

	if m := patronMesAnio.FindStringSubmatch(valor); m != nil {
		anio, _ := strconv.Atoi(m[3])
		return m[1], anio, true
	}
	if m := patronNumerico.FindStringSubmatch(valor); m != nil {
		mes, _ := strconv.Atoi(m[1])
		anio, _ := strconv.Atoi(m[2])
		if mes >= 1 && mes <= 12 && anio >= 2020 {
			return mesesMinusculas[mes-1], anio, true
		}
	}
	if m := patronSoloMes.FindString(valor); m != "" {
		return m, ahora.Year(), true
	}
	return "", 0, false
}

// ExtraerPeriodoInfo arma el bloque temporal del documento: el período que
// se liquida sale de los datos consolidados; la fecha de procesamiento es
// ahora. Nunca se asume que coinciden (el archivo de junio se procesa en
// julio). Precedencia: voto mayoritario de periodoTexto, luego cualquier
// periodoTexto parseable, luego el último día de la primera máquina, y como
// último recurso el mes actual.
func ExtraerPeriodoInfo(consolidated []domain.MaquinaConsolidada, ahora time.Time) domain.FechasDoc {
	var mes string
	var anio int
	encontrado := false

	if periodo := DetectarPeriodoLiquidacion(consolidated); periodo != periodoNoDetectado {
		mes, anio, encontrado = parsePeriodoTexto(periodo, ahora)
	}
	if !encontrado {
		for _, row := range consolidated {
			if row.PeriodoTexto == "" {
				continue
			}
			if mes, anio, encontrado = parsePeriodoTexto(row.PeriodoTexto, ahora); encontrado {
				break
			}
		}
	}
	if !encontrado && len(consolidated) > 0 && consolidated[0].UltimoDia != "" {
		if t, err := time.Parse("02/01/2006", consolidated[0].UltimoDia); err == nil {
			mes = mesesMinusculas[int(t.Month())-1]
			anio = t.Year()
			encontrado = true
		}
	}
	if !encontrado {
		mes = mesesMinusculas[int(ahora.Month())-1]
		anio = ahora.Year()
	}

	return domain.FechasDoc{
		PeriodoLiquidacion:     fmt.Sprintf("%s_%d", mes, anio),
		MesLiquidacion:         mes,
		AnioLiquidacion:        anio,
		FechaProcesamiento:     ahora.Format("2006-01-02"),
		TimestampProcesamiento: ahora.UnixMilli(),
	}
}

var noAlfanumerico = regexp.MustCompile(`[^a-zA-Z0-9]`)

func normalizarEmpresa(empresa string) string {
	return strings.ToLower(noAlfanumerico.ReplaceAllString(empresa, "_"))
}

// GenerateLiquidacionID genera el id del documento:
// empresa_periodo_usuario_timestamp.
func GenerateLiquidacionID(empresa, periodoLiquidacion, userID string, ahora time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d", normalizarEmpresa(empresa), periodoLiquidacion, userID, ahora.UnixMilli())
}

// BuildDocInput reúne lo que necesita el armado del documento final. Las
// referencias de archivo las produce el colaborador de storage antes de
// llamar aquí; el core solo las incrusta.
type BuildDocInput struct {
	Resultado       *domain.ResultadoLiquidacion
	UserID          string
	ArchivoOriginal *domain.ArchivoInfo
	ArchivoTarifas  *domain.ArchivoInfo
	Ahora           time.Time
}

// BuildLiquidacionDoc arma el documento persistible de la corrida: empresa,
// bloque temporal, referencias de archivos, métricas, datos consolidados y
// metadatos de búsqueda. Se crea una vez por corrida exitosa.
func BuildLiquidacionDoc(in BuildDocInput) *domain.LiquidacionDoc {
	res := in.Resultado
	fechas := ExtraerPeriodoInfo(res.Consolidated, in.Ahora)
	empresaNorm := normalizarEmpresa(res.Empresa)

	archivos := domain.ArchivosDoc{
		ArchivoOriginal: in.ArchivoOriginal,
		ArchivoTarifas:  in.ArchivoTarifas,
		TotalArchivos:   1,
		TiposProcesados: []string{"liquidacion"},
	}
	tipoLiquidacion := "solo_archivo_principal"
	tagTarifas := "sin_tarifas"
	if in.ArchivoTarifas != nil {
		archivos.TotalArchivos = 2
		archivos.TiposProcesados = append(archivos.TiposProcesados, "tarifas")
		tipoLiquidacion = "con_tarifas_corregidas"
		tagTarifas = "con_tarifas"
	}

	return &domain.LiquidacionDoc{
		ID:     GenerateLiquidacionID(res.Empresa, fechas.PeriodoLiquidacion, in.UserID, in.Ahora),
		UserID: in.UserID,
		Empresa: domain.EmpresaDoc{
			Nombre:      res.Empresa,
			Normalizado: empresaNorm,
		},
		Fechas:            fechas,
		Archivos:          archivos,
		Metricas:          res.Metrics,
		DatosConsolidados: res.Consolidated,
		Procesamiento: domain.ProcesamientoDoc{
			FueCorregidoConTarifas: in.ArchivoTarifas != nil,
			RequiereProcesamiento:  true,
			VersionProcesamiento:   "2.0",
			TipoLiquidacion:        tipoLiquidacion,
			Validado:               true,
			FechaValidacion:        in.Ahora.Format(time.RFC3339),
		},
		Metadatos: domain.MetadatosDoc{
			EmpresaNormalizada: empresaNorm,
			AnioMes:            fmt.Sprintf("%d_%02d", fechas.AnioLiquidacion, numeroMes(fechas.MesLiquidacion)),
			UsuarioEmpresa:     fmt.Sprintf("%s_%s", in.UserID, empresaNorm),
			Tags: []string{
				fechas.MesLiquidacion,
				strconv.Itoa(fechas.AnioLiquidacion),
				strings.ToLower(res.Empresa),
				tagTarifas,
			},
		},
	}
}

// LiquidacionStore persiste los documentos de liquidación. Los documentos
// son inmutables una vez guardados; las correcciones van por UpsertEdicion.
type LiquidacionStore interface {
	Guardar(doc *domain.LiquidacionDoc) error
	PorID(id string) (*domain.LiquidacionDoc, error)
}

// EdicionStore persiste el documento de edición enlazado a una liquidación.
// El colaborador debe garantizar a lo sumo un escritor concurrente por
// liquidación original (transacción o concurrencia optimista): el upsert
// asume acceso exclusivo al snapshot que leyó.
type EdicionStore interface {
	EdicionPorOriginal(originalID string) (*domain.EdicionDoc, error)
	GuardarEdicion(doc *domain.EdicionDoc) error
}

// UpsertEdicion aplica una edición sobre una liquidación SIN tocar el
// documento original: la primera edición crea el documento enlazado, las
// siguientes se fusionan en él. Cada evento del historial guarda, por
// máquina editada (identificada por serial), el snapshot anterior y el
// nuevo; las máquinas no editadas conservan sus valores. TotalImpuestos se
// recalcula por máquina y las métricas del documento se recalculan del
// consolidado fusionado.
func UpsertEdicion(store EdicionStore, original *domain.LiquidacionDoc, input domain.EdicionInput, ahora time.Time) (*domain.EdicionDoc, error) {
	if len(input.Maquinas) == 0 {
		return nil, fmt.Errorf("edición sin máquinas editadas")
	}

	doc, err := store.EdicionPorOriginal(original.ID)
	if err != nil {
		return nil, fmt.Errorf("error leyendo edición existente: %w", err)
	}
	if doc == nil {
		datos := make([]domain.MaquinaConsolidada, len(original.DatosConsolidados))
		copy(datos, original.DatosConsolidados)
		doc = &domain.EdicionDoc{
			ID:                    uuid.NewString(),
			LiquidacionOriginalID: original.ID,
			EsEdicion:             true,
			DatosConsolidados:     datos,
		}
	}

	porSerial := make(map[string]int, len(doc.DatosConsolidados))
	for i, m := range doc.DatosConsolidados {
		porSerial[m.Serial] = i
	}

	cambios := make([]domain.CambioMaquina, 0, len(input.Maquinas))
	for _, editada := range input.Maquinas {
		editada.TotalImpuestos = editada.DerechosExplotacion + editada.GastosAdministracion

		if i, ok := porSerial[editada.Serial]; ok {
			cambios = append(cambios, domain.CambioMaquina{
				Serial:  editada.Serial,
				Antes:   doc.DatosConsolidados[i],
				Despues: editada,
			})
			doc.DatosConsolidados[i] = editada
		} else {
			// serial nuevo: la edición introduce la máquina
			cambios = append(cambios, domain.CambioMaquina{
				Serial:  editada.Serial,
				Despues: editada,
			})
			porSerial[editada.Serial] = len(doc.DatosConsolidados)
			doc.DatosConsolidados = append(doc.DatosConsolidados, editada)
		}
	}

	doc.HistorialEdiciones = append(doc.HistorialEdiciones, domain.EventoEdicion{
		Fecha:   ahora,
		Usuario: input.Usuario,
		Motivo:  input.Motivo,
		Cambios: cambios,
	})
	doc.Metricas = CalcularMetricasBasicas(doc.DatosConsolidados, GenerarReporteSala(doc.DatosConsolidados))

	if err := store.GuardarEdicion(doc); err != nil {
		return nil, fmt.Errorf("error guardando edición: %w", err)
	}
	return doc, nil
}
