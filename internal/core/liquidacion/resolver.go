package liquidacion

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"liquidaciones-service/internal/domain"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CompanyRegistry entrega el snapshot externo de empresas. El resolver es
// una función pura sobre ese snapshot: nunca lo escribe ni lo refresca.
type CompanyRegistry interface {
	Companies() []domain.Empresa
}

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeText quita tildes, pasa a mayúsculas y colapsa todo lo que no sea
// alfanumérico, para comparar nombres escritos de formas distintas.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

var nitSeparadores = regexp.MustCompile(`[.\-\s]`)

func normalizeNIT(nit string) string {
	return strings.ToUpper(strings.TrimSpace(nitSeparadores.ReplaceAllString(nit, "")))
}

// BuscarEmpresaPorContrato compara número de contrato normalizado
// (trim + mayúsculas) contra el registro. Devuelve nil si no hay match.
func BuscarEmpresaPorContrato(empresas []domain.Empresa, numeroContrato string) *domain.Empresa {
	contrato := strings.ToUpper(strings.TrimSpace(numeroContrato))
	if contrato == "" {
		return nil
	}
	for i := range empresas {
		if empresas[i].ContractNumber == "" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(empresas[i].ContractNumber)) == contrato {
			return &empresas[i]
		}
	}
	return nil
}

// BuscarEmpresaPorNIT busca por NIT normalizado (sin puntos, guiones ni
// espacios). Si no hay match exacto reintenta quitando el dígito de
// verificación de ambos lados; el NIT buscado solo pierde el dígito cuando
// tiene más de 9 caracteres. El fallback puede dar falsos positivos con NITs
// cortos; el llamador decide si el match parcial le sirve.
func BuscarEmpresaPorNIT(empresas []domain.Empresa, nit string) *domain.Empresa {
	buscado := normalizeNIT(nit)
	if buscado == "" {
		return nil
	}

	for i := range empresas {
		if normalizeNIT(empresas[i].NIT) == buscado {
			return &empresas[i]
		}
	}

	buscadoSinDV := buscado
	if len(buscado) > 9 {
		buscadoSinDV = buscado[:len(buscado)-1]
	}
	for i := range empresas {
		cNIT := normalizeNIT(empresas[i].NIT)
		if cNIT == "" {
			continue
		}
		cSinDV := cNIT[:len(cNIT)-1]
		if cSinDV == buscadoSinDV || strings.HasPrefix(cNIT, buscado) {
			return &empresas[i]
		}
	}
	return nil
}

// BuscarEmpresaPorNombre intenta match exacto sobre el nombre normalizado y,
// si falla, el más cercano por bag-of-ngrams sobre todo el registro.
func BuscarEmpresaPorNombre(empresas []domain.Empresa, nombre string) *domain.Empresa {
	key := normalizeText(nombre)
	if key == "" || len(empresas) == 0 {
		return nil
	}

	porNombre := make(map[string]int, len(empresas))
	keys := make([]string, 0, len(empresas))
	for i := range empresas {
		k := normalizeText(empresas[i].Name)
		if k == "" {
			continue
		}
		if _, ok := porNombre[k]; !ok {
			porNombre[k] = i
			keys = append(keys, k)
		}
	}

	if i, ok := porNombre[key]; ok {
		return &empresas[i]
	}

	if len(keys) == 0 {
		return nil
	}
	// closestmatch solo baja a minúsculas la consulta, no el diccionario:
	// el índice de n-gramas se arma con las claves en minúsculas
	minusculas := make([]string, len(keys))
	for i, k := range keys {
		minusculas[i] = strings.ToLower(k)
	}
	cm := closestmatch.New(minusculas, []int{3, 4})
	match := cm.Closest(strings.ToLower(key))
	if match == "" {
		return nil
	}
	i := porNombre[strings.ToUpper(match)]
	return &empresas[i]
}

// NombreEmpresaFallback es el rótulo de empresa cuando el registro no
// resuelve: no es un error, viaja en el resultado como valor centinela.
func NombreEmpresaFallback(numeroContrato string) string {
	if numeroContrato == "" {
		return "Empresa no detectada"
	}
	return fmt.Sprintf("Contrato %s (No encontrado)", numeroContrato)
}
