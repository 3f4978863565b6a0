// cmd/liquidaciones/main.go
package main

import (
	"log"
	"os"

	"liquidaciones-service/internal/api/handlers"
	"liquidaciones-service/internal/api/responses"
	"liquidaciones-service/internal/core/liquidacion"
	"liquidaciones-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()
	responses.InitLogger()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("No se pudo inicializar el logger: ", err)
	}
	defer logger.Sync()

	store := storage.NewMemoryStore()

	var registry liquidacion.CompanyRegistry
	if path := os.Getenv("EMPRESAS_FILE"); path != "" {
		fileRegistry, err := storage.NewFileRegistry(path)
		if err != nil {
			log.Fatal("No se pudo cargar el registro de empresas: ", err)
		}
		registry = fileRegistry
		logger.Info("registro de empresas cargado",
			zap.String("archivo", path),
			zap.Int("empresas", len(fileRegistry.Companies())))
	}

	liquidacionesService := liquidacion.NewService(registry, store, logger)
	liquidacionesHandler := handlers.NewLiquidacionesHandler(liquidacionesService, store)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/liquidaciones/procesar", liquidacionesHandler.HandleProcesar)
		apiV1.POST("/liquidaciones/guardar", liquidacionesHandler.HandleGuardar)
		apiV1.POST("/liquidaciones/:id/ediciones", liquidacionesHandler.HandleEdicion)
		apiV1.GET("/empresas/buscar", liquidacionesHandler.HandleBuscarEmpresa)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "liquidaciones-service"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}
	log.Printf("🚀 Liquidaciones Service (Go) iniciado y escuchando en el puerto %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Fallo al iniciar el servidor de liquidaciones: ", err)
	}
}
