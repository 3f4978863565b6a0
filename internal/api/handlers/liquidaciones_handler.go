package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"liquidaciones-service/internal/api/responses"
	"liquidaciones-service/internal/core/liquidacion"
	"liquidaciones-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// LiquidacionesHandler atiende las peticiones de procesamiento, guardado y
// edición de liquidaciones.
type LiquidacionesHandler struct {
	service liquidacion.Service
	store   liquidacion.LiquidacionStore
}

// NewLiquidacionesHandler crea un nuevo handler de liquidaciones.
func NewLiquidacionesHandler(service liquidacion.Service, store liquidacion.LiquidacionStore) *LiquidacionesHandler {
	return &LiquidacionesHandler{
		service: service,
		store:   store,
	}
}

func abrirGrid(fh *multipart.FileHeader) (domain.Grid, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".csv" && ext != ".xls" && ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("extensión de archivo no soportada: %s", ext)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir el archivo %s", fh.Filename)
	}
	defer f.Close()
	return liquidacion.CargarGrid(f, fh.Filename)
}

// HandleProcesar procesa el archivo de liquidación (más el archivo de
// tarifas opcional) y devuelve el resultado consolidado sin persistir nada.
func (h *LiquidacionesHandler) HandleProcesar(c *gin.Context) {
	archivoHeader, err := c.FormFile("archivo")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Archivo de liquidación (.csv, .xls, .xlsx) no encontrado o inválido")
		return
	}

	data, err := abrirGrid(archivoHeader)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "No se pudo leer el archivo de liquidación", err.Error())
		return
	}

	var tarifas domain.Grid
	if tarifasHeader, errT := c.FormFile("archivoTarifas"); errT == nil {
		tarifas, err = abrirGrid(tarifasHeader)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "No se pudo leer el archivo de tarifas", err.Error())
			return
		}
	}

	empresaManual := strings.TrimSpace(c.PostForm("empresa"))

	resultado, err := h.service.ProcessLiquidacion(data, tarifas, empresaManual)
	if err != nil {
		if errors.Is(err, liquidacion.ErrArchivoInvalido) {
			responses.Error(c, http.StatusUnprocessableEntity, "El archivo no tiene el formato esperado", err.Error())
			return
		}
		responses.Error(c, http.StatusInternalServerError, "Error procesando la liquidación", err.Error())
		return
	}

	responses.Success(c, resultado, "Liquidación procesada")
}

type guardarRequest struct {
	UserID          string                       `json:"userId" binding:"required"`
	Resultado       *domain.ResultadoLiquidacion `json:"resultado" binding:"required"`
	ArchivoOriginal *domain.ArchivoInfo          `json:"archivoOriginal" binding:"required"`
	ArchivoTarifas  *domain.ArchivoInfo          `json:"archivoTarifas"`
}

// HandleGuardar arma el documento de liquidación a partir de un resultado
// ya procesado y lo persiste. El documento guardado es inmutable.
func (h *LiquidacionesHandler) HandleGuardar(c *gin.Context) {
	var req guardarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Cuerpo de la petición inválido", err.Error())
		return
	}

	doc := h.service.BuildDoc(liquidacion.BuildDocInput{
		Resultado:       req.Resultado,
		UserID:          req.UserID,
		ArchivoOriginal: req.ArchivoOriginal,
		ArchivoTarifas:  req.ArchivoTarifas,
		Ahora:           time.Now(),
	})

	if err := h.store.Guardar(doc); err != nil {
		responses.Error(c, http.StatusInternalServerError, "Error guardando la liquidación", err.Error())
		return
	}

	responses.Created(c, doc, "Liquidación guardada")
}

// HandleEdicion aplica una edición sobre una liquidación guardada. El
// original no se toca: la primera edición crea el documento enlazado y las
// siguientes se fusionan en él.
func (h *LiquidacionesHandler) HandleEdicion(c *gin.Context) {
	id := c.Param("id")

	original, err := h.store.PorID(id)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Error consultando la liquidación", err.Error())
		return
	}
	if original == nil {
		responses.Error(c, http.StatusNotFound, fmt.Sprintf("Liquidación %s no encontrada", id))
		return
	}

	var input domain.EdicionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		responses.Error(c, http.StatusBadRequest, "Cuerpo de la petición inválido", err.Error())
		return
	}
	input.LiquidacionOriginalID = id

	doc, err := h.service.ApplyEdicion(original, input)
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "No se pudo aplicar la edición", err.Error())
		return
	}

	responses.Success(c, doc, "Edición aplicada")
}

// HandleBuscarEmpresa resuelve una empresa del registro por contrato, NIT
// o nombre (en ese orden de precedencia).
func (h *LiquidacionesHandler) HandleBuscarEmpresa(c *gin.Context) {
	contrato := strings.TrimSpace(c.Query("contrato"))
	nit := strings.TrimSpace(c.Query("nit"))
	nombre := strings.TrimSpace(c.Query("nombre"))
	if contrato == "" && nit == "" && nombre == "" {
		responses.Error(c, http.StatusBadRequest, "Se requiere al menos un criterio: contrato, nit o nombre")
		return
	}

	empresa := h.service.ResolverEmpresa(contrato, nit, nombre)
	if empresa == nil {
		responses.Error(c, http.StatusNotFound, "Empresa no encontrada en el registro")
		return
	}

	responses.Success(c, empresa, "Empresa encontrada")
}
