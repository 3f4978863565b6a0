// Package storage provee implementaciones en memoria de los stores del
// servicio. Sirven para desarrollo y tests; un backend durable implementa
// las mismas interfaces.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"liquidaciones-service/internal/domain"
)

// MemoryStore guarda liquidaciones y ediciones en memoria. Es seguro para
// uso concurrente; el candado único por store cumple la garantía de un solo
// escritor por liquidación que exige el upsert de ediciones.
type MemoryStore struct {
	mu            sync.RWMutex
	liquidaciones map[string]*domain.LiquidacionDoc
	ediciones     map[string]*domain.EdicionDoc // clave: id de la liquidación original
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		liquidaciones: make(map[string]*domain.LiquidacionDoc),
		ediciones:     make(map[string]*domain.EdicionDoc),
	}
}

func (s *MemoryStore) Guardar(doc *domain.LiquidacionDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liquidaciones[doc.ID]; ok {
		return fmt.Errorf("liquidación %s ya existe", doc.ID)
	}
	s.liquidaciones[doc.ID] = doc
	return nil
}

func (s *MemoryStore) PorID(id string) (*domain.LiquidacionDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liquidaciones[id], nil
}

func (s *MemoryStore) EdicionPorOriginal(originalID string) (*domain.EdicionDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ediciones[originalID], nil
}

func (s *MemoryStore) GuardarEdicion(doc *domain.EdicionDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ediciones[doc.LiquidacionOriginalID] = doc
	return nil
}

// FileRegistry es un registro de empresas cargado de un snapshot JSON.
// El snapshot es una lista de objetos {name, contractNumber, nit, logoURL}.
type FileRegistry struct {
	empresas []domain.Empresa
}

func NewFileRegistry(path string) (*FileRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error leyendo registro de empresas: %w", err)
	}
	var empresas []domain.Empresa
	if err := json.Unmarshal(data, &empresas); err != nil {
		return nil, fmt.Errorf("registro de empresas malformado: %w", err)
	}
	return &FileRegistry{empresas: empresas}, nil
}

func (r *FileRegistry) Companies() []domain.Empresa {
	return r.empresas
}
