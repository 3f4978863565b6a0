package liquidacion

import (
	"errors"
	"fmt"
	"time"

	"liquidaciones-service/internal/domain"

	"go.uber.org/zap"
)

// Errores centinela del pipeline. ErrArchivoInvalido aborta la corrida;
// ErrTarifasParse degrada a cálculo por defecto (el archivo principal ya
// está procesado cuando se intentan las tarifas).
var (
	ErrArchivoInvalido = errors.New("archivo de liquidación inválido")
	ErrTarifasParse    = errors.New("archivo de tarifas ilegible")
)

// Service define la interfaz de procesamiento de liquidaciones.
type Service interface {
	ProcessLiquidacion(data domain.Grid, tarifas domain.Grid, empresaManual string) (*domain.ResultadoLiquidacion, error)
	BuildDoc(in BuildDocInput) *domain.LiquidacionDoc
	ApplyEdicion(original *domain.LiquidacionDoc, input domain.EdicionInput) (*domain.EdicionDoc, error)
	ResolverEmpresa(contrato, nit, nombre string) *domain.Empresa
}

type service struct {
	registry  CompanyRegistry
	ediciones EdicionStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewService crea una nueva instancia del servicio de liquidaciones.
// registry puede ser nil (se usa el nombre sintético por contrato);
// ediciones puede ser nil si no se van a aplicar ediciones.
func NewService(registry CompanyRegistry, ediciones EdicionStore, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		registry:  registry,
		ediciones: ediciones,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessLiquidacion corre el pipeline completo sobre la grilla del archivo
// principal. tarifas es opcional (nil cuando no se subió archivo de tarifas);
// si no se puede parsear, la corrida continúa con el cálculo por defecto y
// deja constancia en Warnings. empresaManual, si viene, le gana a la
// detección por contrato.
func (svc *service) ProcessLiquidacion(data domain.Grid, tarifas domain.Grid, empresaManual string) (*domain.ResultadoLiquidacion, error) {
	stats, warnings, err := ValidarGrid(data)
	if err != nil {
		return nil, err
	}
	svc.logger.Info("grilla validada",
		zap.Int("filas", stats.TotalFilas),
		zap.Int("columnas", stats.Columnas))

	headerRow, fallback := DetectarFilaEncabezados(data)
	if fallback {
		warnings = append(warnings, "encabezados no detectados, usando fila 2 por defecto")
	}
	svc.logger.Info("encabezados detectados",
		zap.Int("fila", headerRow),
		zap.Bool("fallback", fallback))

	cm := MapearColumnas(data[headerRow])
	warnings = append(warnings, cm.ColumnasFaltantes()...)

	numeroContrato := DetectarNumeroContrato(data)
	empresa, empresaCompleta := svc.resolverEmpresaCorrida(empresaManual, numeroContrato)
	svc.logger.Info("empresa resuelta",
		zap.String("empresa", empresa),
		zap.String("contrato", numeroContrato))

	filas := ProyectarFilas(data, headerRow, cm)
	if len(filas) == 0 {
		// sin NUC mapeable ninguna fila sobrevive; el resultado queda
		// vacío pero la corrida no aborta
		warnings = append(warnings, "sin filas con NUC después de la fila de encabezados")
		svc.logger.Warn("proyección sin filas",
			zap.Int("filasOrigen", len(data)-headerRow-1))
	}

	consolidated := ConsolidarDatos(filas, empresa)
	svc.logger.Info("datos consolidados",
		zap.Int("filasOrigen", len(filas)),
		zap.Int("maquinas", len(consolidated)))

	var tarifasOficiales map[string]domain.TarifaOficial
	tarifasAplicadas := 0
	if tarifas != nil {
		tarifasOficiales, err = ParseTarifas(tarifas)
		if err != nil {
			svc.logger.Warn("archivo de tarifas descartado", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("tarifas ignoradas: %v", err))
		} else {
			tarifasAplicadas = AplicarTarifas(consolidated, tarifasOficiales)
			svc.logger.Info("tarifas aplicadas",
				zap.Int("entradas", len(tarifasOficiales)),
				zap.Int("maquinasAjustadas", tarifasAplicadas))
		}
	}

	reporte := GenerarReporteSala(consolidated)
	metricas := CalcularMetricasBasicas(consolidated, reporte)
	periodo := DetectarPeriodoLiquidacion(consolidated)

	return &domain.ResultadoLiquidacion{
		Empresa:          empresa,
		EmpresaCompleta:  empresaCompleta,
		NumeroContrato:   numeroContrato,
		Consolidated:     consolidated,
		ReporteSala:      reporte,
		Metrics:          metricas,
		PeriodoDetectado: periodo,
		TarifasOficiales: tarifasOficiales,
		TarifasAplicadas: tarifasAplicadas,
		HeaderRow:        headerRow,
		HeaderFallback:   fallback,
		Warnings:         warnings,
	}, nil
}

func (svc *service) resolverEmpresaCorrida(empresaManual, numeroContrato string) (string, *domain.Empresa) {
	if empresaManual != "" {
		return empresaManual, nil
	}
	if svc.registry != nil && numeroContrato != "" {
		if e := BuscarEmpresaPorContrato(svc.registry.Companies(), numeroContrato); e != nil {
			return e.Name, e
		}
	}
	return NombreEmpresaFallback(numeroContrato), nil
}

// ResolverEmpresa busca en el registro por contrato, NIT o nombre, en ese
// orden. Devuelve nil si no hay registro o ningún criterio coincide.
func (svc *service) ResolverEmpresa(contrato, nit, nombre string) *domain.Empresa {
	if svc.registry == nil {
		return nil
	}
	empresas := svc.registry.Companies()
	if contrato != "" {
		if e := BuscarEmpresaPorContrato(empresas, contrato); e != nil {
			return e
		}
	}
	if nit != "" {
		if e := BuscarEmpresaPorNIT(empresas, nit); e != nil {
			return e
		}
	}
	if nombre != "" {
		if e := BuscarEmpresaPorNombre(empresas, nombre); e != nil {
			return e
		}
	}
	return nil
}

func (svc *service) BuildDoc(in BuildDocInput) *domain.LiquidacionDoc {
	if in.Ahora.IsZero() {
		in.Ahora = svc.now()
	}
	return BuildLiquidacionDoc(in)
}

func (svc *service) ApplyEdicion(original *domain.LiquidacionDoc, input domain.EdicionInput) (*domain.EdicionDoc, error) {
	if svc.ediciones == nil {
		return nil, fmt.Errorf("servicio sin store de ediciones")
	}
	doc, err := UpsertEdicion(svc.ediciones, original, input, svc.now())
	if err != nil {
		return nil, err
	}
	svc.logger.Info("edición aplicada",
		zap.String("liquidacion", original.ID),
		zap.Int("eventos", len(doc.HistorialEdiciones)))
	return doc, nil
}
